package chunker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// stubEmbedder returns a fixed vector per sentence, keyed by a crude topic
// signal (first word), so similarity grouping is deterministic in tests.
type stubEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (s *stubEmbedder) Name() string   { return "stub" }
func (s *stubEmbedder) Dimension() int { return s.dim }
func (s *stubEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func TestSemanticSplit_GroupsSimilarSentences(t *testing.T) {
	topicA := []float32{1, 0, 0}
	topicB := []float32{0, 1, 0}
	embedder := &stubEmbedder{dim: 3, vectors: map[string][]float32{
		"Cats are small mammals.":     topicA,
		"Cats often sleep all day.":   topicA,
		"Rockets fly to orbit.":       topicB,
		"Rockets need a lot of fuel.": topicB,
	}}
	c := New(embedder, nil)

	doc := model.Document{ID: "d1", Content: "Cats are small mammals. Cats often sleep all day. Rockets fly to orbit. Rockets need a lot of fuel."}
	chunks, err := c.Chunk(context.Background(), doc, Config{
		Strategy: StrategySemantic, ChunkSize: 1000, SimilarityThreshold: 0.9,
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Content, "Cats")
	assert.Contains(t, chunks[1].Content, "Rockets")
}

func TestSemanticSplit_RequiresEmbedder(t *testing.T) {
	c := New(nil, nil)
	doc := model.Document{ID: "d1", Content: "One sentence. Another sentence."}
	_, err := c.Chunk(context.Background(), doc, Config{Strategy: StrategySemantic, ChunkSize: 1000})
	require.Error(t, err)
}

func TestSemanticSplit_SingleSentenceNoEmbedCall(t *testing.T) {
	c := New(&stubEmbedder{dim: 3}, nil)
	doc := model.Document{ID: "d1", Content: "Only one sentence here"}
	chunks, err := c.Chunk(context.Background(), doc, Config{Strategy: StrategySemantic, ChunkSize: 1000})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 0.0001)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001)
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
}
