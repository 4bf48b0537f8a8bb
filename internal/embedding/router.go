// Package embedding implements C1, the embedding router: text→vector
// requests routed to an ordered set of providers with failover.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
)

// maxBatchSize caps texts per provider call, matching the teacher's
// EmbedderService batching discipline.
const maxBatchSize = 250

// Provider is the embedding boundary (spec.md §6): a transient failure here
// should yield to the next provider in the router, not abort the call.
type Provider interface {
	Name() string
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// TransientError wraps a Provider error that should trigger failover to the
// next provider, as opposed to a permanent error that should abort the call.
type TransientError struct{ Err error }

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func isTransient(err error) bool {
	var te *TransientError
	return err != nil && (asTransient(err, &te))
}

func asTransient(err error, target **TransientError) bool {
	for err != nil {
		if te, ok := err.(*TransientError); ok {
			*target = te
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Router tries providers in order on each call; a provider failing with a
// transient error yields to the next. All providers must share the same
// dimension — checked once at construction, where Dimension()'s value is
// fixed from the providers' reported dimension.
type Router struct {
	providers []Provider

	mu  sync.Mutex
	dim int // shared provider dimension, set by NewRouter
}

// NewRouter builds a Router over providers, validating at construction that
// every provider reports the same Dimension().
func NewRouter(providers []Provider) (*Router, error) {
	if len(providers) == 0 {
		return nil, kernelerr.New(kernelerr.KindConfigInvalid, "embedding.NewRouter: no providers configured")
	}
	want := providers[0].Dimension()
	for _, p := range providers[1:] {
		if d := p.Dimension(); d != want {
			return nil, kernelerr.New(kernelerr.KindConfigInvalid,
				"embedding.NewRouter: provider %q dimension %d != %q dimension %d", p.Name(), d, providers[0].Name(), want)
		}
	}
	return &Router{providers: providers, dim: want}, nil
}

// Dimension returns the router's vector dimension, cached after construction
// (all providers share it, validated up front).
func (r *Router) Dimension() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dim
}

// EmbedOne embeds a single text, trying providers in order.
func (r *Router) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := r.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in batches of maxBatchSize, trying providers in
// order for each batch and failing over on transient errors.
func (r *Router) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, kernelerr.New(kernelerr.KindValidation, "embedding.EmbedBatch: no texts provided")
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := r.embedBatchFailover(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embedding.EmbedBatch: batch %d-%d: %w", i, end, err)
		}
		all = append(all, vecs...)
	}
	return all, nil
}

func (r *Router) embedBatchFailover(ctx context.Context, batch []string) ([][]float32, error) {
	var lastErr error
	for _, p := range r.providers {
		vecs, err := p.EmbedBatch(ctx, batch)
		if err == nil {
			for _, v := range vecs {
				if len(v) != r.dim {
					return nil, kernelerr.New(kernelerr.KindValidation,
						"embedding: provider %q returned vector of dimension %d, want %d", p.Name(), len(v), r.dim)
				}
			}
			return vecs, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, kernelerr.Wrap(kernelerr.KindEmbeddingFailed, err)
		}
		slog.Warn("embedding provider failed, trying next", "provider", p.Name(), "error", err)
	}
	return nil, kernelerr.Wrap(kernelerr.KindEmbeddingFailed, fmt.Errorf("all providers exhausted: %w", lastErr))
}
