package embedding

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is an in-memory Provider for tests: it returns deterministic
// vectors unless primed with an error.
type fakeProvider struct {
	name string
	dim  int
	err  error
	// transient, when true, causes err (if set) to be wrapped as transient.
	transient bool
	calls     int
}

func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) Dimension() int { return f.dim }

func (f *fakeProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		if f.transient {
			return nil, Transient(f.err)
		}
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(texts[i]))
		out[i] = v
	}
	return out, nil
}

func TestNewRouter_RejectsEmpty(t *testing.T) {
	_, err := NewRouter(nil)
	require.Error(t, err)
}

func TestNewRouter_RejectsDimensionMismatch(t *testing.T) {
	a := &fakeProvider{name: "a", dim: 768}
	b := &fakeProvider{name: "b", dim: 1536}
	_, err := NewRouter([]Provider{a, b})
	require.Error(t, err)
}

func TestRouter_EmbedBatch_Success(t *testing.T) {
	p := &fakeProvider{name: "primary", dim: 8}
	r, err := NewRouter([]Provider{p})
	require.NoError(t, err)

	vecs, err := r.EmbedBatch(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 8)
	assert.Equal(t, 8, r.Dimension())
}

func TestRouter_FailsOverOnTransientError(t *testing.T) {
	primary := &fakeProvider{name: "primary", dim: 4, err: fmt.Errorf("rate limited"), transient: true}
	backup := &fakeProvider{name: "backup", dim: 4}
	r, err := NewRouter([]Provider{primary, backup})
	require.NoError(t, err)

	vecs, err := r.EmbedOne(context.Background(), "test")
	require.NoError(t, err)
	assert.Len(t, vecs, 4)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestRouter_PermanentErrorDoesNotFailOver(t *testing.T) {
	primary := &fakeProvider{name: "primary", dim: 4, err: fmt.Errorf("invalid api key")}
	backup := &fakeProvider{name: "backup", dim: 4}
	r, err := NewRouter([]Provider{primary, backup})
	require.NoError(t, err)

	_, err = r.EmbedOne(context.Background(), "test")
	require.Error(t, err)
	assert.Equal(t, 0, backup.calls)
}

func TestRouter_AllProvidersExhausted(t *testing.T) {
	a := &fakeProvider{name: "a", dim: 4, err: fmt.Errorf("down"), transient: true}
	b := &fakeProvider{name: "b", dim: 4, err: fmt.Errorf("also down"), transient: true}
	r, err := NewRouter([]Provider{a, b})
	require.NoError(t, err)

	_, err = r.EmbedOne(context.Background(), "test")
	require.Error(t, err)
}

func TestRouter_EmbedBatch_RespectsMaxBatchSize(t *testing.T) {
	p := &fakeProvider{name: "primary", dim: 4}
	r, err := NewRouter([]Provider{p})
	require.NoError(t, err)

	texts := make([]string, 300)
	for i := range texts {
		texts[i] = "x"
	}
	vecs, err := r.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, 300)
	assert.Equal(t, 2, p.calls)
}

func TestRouter_EmbedBatch_EmptyInput(t *testing.T) {
	p := &fakeProvider{name: "primary", dim: 4}
	r, err := NewRouter([]Provider{p})
	require.NoError(t, err)

	_, err = r.EmbedBatch(context.Background(), nil)
	require.Error(t, err)
}

func TestRouter_RejectsWrongDimensionFromProvider(t *testing.T) {
	p := &fakeProvider{name: "primary", dim: 4}
	r, err := NewRouter([]Provider{p})
	require.NoError(t, err)
	r.dim = 16 // simulate a provider silently changing shape after construction

	_, err = r.EmbedOne(context.Background(), "test")
	require.Error(t, err)
}
