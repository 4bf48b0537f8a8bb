package fallback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

type stubAnalyzer struct {
	result model.ProcessedQuery
}

func (s *stubAnalyzer) Process(query string) model.ProcessedQuery {
	r := s.result
	r.Original = query
	return r
}

type scriptedRetriever struct {
	// byRung maps strategy name to the results it should return.
	byRung map[string][]model.RetrievalResult
	calls  []string
}

func (r *scriptedRetriever) Retrieve(ctx context.Context, query string, keywords []string, strategy model.RetrievalStrategy) ([]model.RetrievalResult, error) {
	r.calls = append(r.calls, strategy.Name)
	return r.byRung[strategy.Name], nil
}

type stubEscapeHatch struct {
	direct   []model.RetrievalResult
	fullText []model.RetrievalResult
}

func (s *stubEscapeHatch) DirectEntitySearch(ctx context.Context, term string, limit int) ([]model.RetrievalResult, error) {
	return s.direct, nil
}

func (s *stubEscapeHatch) FullTextSearch(ctx context.Context, term string, limit int) ([]model.RetrievalResult, error) {
	return s.fullText, nil
}

func TestRetrieve_GreetingShortCircuits(t *testing.T) {
	c := New(&stubAnalyzer{result: model.ProcessedQuery{QueryType: model.QueryGreeting}}, &scriptedRetriever{}, nil)
	results, report, err := c.Retrieve(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, report.Success)
	assert.Equal(t, "synthetic_greeting", report.StrategyUsed)
}

func TestRetrieve_LocksInFirstNonEmptyRung(t *testing.T) {
	analyzer := &stubAnalyzer{result: model.ProcessedQuery{QueryType: model.QueryGeneral, Confidence: 0.9, Entities: []string{"x"}}}
	retriever := &scriptedRetriever{byRung: map[string][]model.RetrievalResult{
		"relaxed": {{ChunkID: "c1", Content: "hit", Score: 0.5}},
	}}
	c := New(analyzer, retriever, nil)

	results, report, err := c.Retrieve(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "strict", retriever.calls[0])
	assert.Equal(t, "relaxed", report.StrategyUsed)
}

func TestRetrieve_EscalatesThroughEveryRungThenEscapeHatch(t *testing.T) {
	analyzer := &stubAnalyzer{result: model.ProcessedQuery{QueryType: model.QueryGeneral, Confidence: 0.3}}
	retriever := &scriptedRetriever{}
	escape := &stubEscapeHatch{direct: []model.RetrievalResult{{ChunkID: "e1", Content: "entity hit", Score: 1.0}}}
	c := New(analyzer, retriever, escape)

	results, report, err := c.Retrieve(context.Background(), "xyzzy")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "entity_search", report.StrategyUsed)
	assert.True(t, report.Success)
}

func TestRetrieve_FallsBackToAdvisoryWhenEverythingEmpty(t *testing.T) {
	analyzer := &stubAnalyzer{result: model.ProcessedQuery{QueryType: model.QueryGeneral, Confidence: 0.3}}
	retriever := &scriptedRetriever{}
	escape := &stubEscapeHatch{}
	c := New(analyzer, retriever, escape)

	results, report, err := c.Retrieve(context.Background(), "xyzzy")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fallback", report.StrategyUsed)
	assert.False(t, report.Success)
}

func TestRetrieve_NilEscapeHatchGoesStraightToFallback(t *testing.T) {
	analyzer := &stubAnalyzer{result: model.ProcessedQuery{QueryType: model.QueryGeneral, Confidence: 0.3}}
	c := New(analyzer, &scriptedRetriever{}, nil)

	results, report, err := c.Retrieve(context.Background(), "xyzzy")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fallback", report.StrategyUsed)
}
