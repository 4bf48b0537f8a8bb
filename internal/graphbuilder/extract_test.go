package graphbuilder

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

type scriptedLLM struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedLLM) Invoke(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func chunks(n int) []model.Chunk {
	out := make([]model.Chunk, n)
	for i := range out {
		out[i] = model.Chunk{ID: fmt.Sprintf("c%d", i), Content: "Ada Lovelace designed the Analytical Engine."}
	}
	return out
}

func TestExtractTriples_Success(t *testing.T) {
	resp := `[{"chunk_id":"c0","subject":"Ada Lovelace","predicate":"designed","object":"Analytical Engine","subject_type":"Person","object_type":"Artifact","confidence":0.9}]`
	llmClient := &scriptedLLM{responses: []string{resp}}
	b := New(llmClient)

	triples, failed, err := b.ExtractTriples(context.Background(), chunks(1), Config{SPOBatchSize: 5})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, triples, 1)
	assert.Equal(t, "Ada Lovelace", triples[0].Subject)
}

func TestExtractTriples_PartialBatchFailureIsNonFatal(t *testing.T) {
	llmClient := &scriptedLLM{errs: []error{fmt.Errorf("llm down"), fmt.Errorf("llm down"), fmt.Errorf("llm down"), fmt.Errorf("llm down")}}
	b := New(llmClient)

	triples, failed, err := b.ExtractTriples(context.Background(), chunks(2), Config{SPOBatchSize: 1, MaxRetries: 1})
	require.NoError(t, err)
	assert.Empty(t, triples)
	assert.Len(t, failed, 2)
}

func TestExtractTriples_RetriesOnParseFailureThenSucceeds(t *testing.T) {
	good := `[{"chunk_id":"c0","subject":"A","predicate":"rel","object":"B","confidence":0.5}]`
	llmClient := &scriptedLLM{responses: []string{"not json", good}}
	b := New(llmClient)

	triples, failed, err := b.ExtractTriples(context.Background(), chunks(1), Config{SPOBatchSize: 5, MaxRetries: 2})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, triples, 1)
}

func TestExtractTriples_SkipsIncompleteTriples(t *testing.T) {
	resp := `[{"chunk_id":"c0","subject":"","predicate":"x","object":"y","confidence":0.5}]`
	llmClient := &scriptedLLM{responses: []string{resp}}
	b := New(llmClient)

	triples, _, err := b.ExtractTriples(context.Background(), chunks(1), Config{SPOBatchSize: 5})
	require.NoError(t, err)
	assert.Empty(t, triples)
}

func TestChunkBatches_GroupsBySize(t *testing.T) {
	batches := chunkBatches(chunks(5), 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
}
