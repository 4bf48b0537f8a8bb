package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/chunker"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/graphbuilder"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

type stubChunker struct{ err error }

func (c *stubChunker) Chunk(ctx context.Context, doc model.Document, cfg chunker.Config) ([]model.Chunk, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []model.Chunk{{ID: doc.ID + "#0", Content: doc.Content, Metadata: model.DocumentMetadata{ParentID: doc.ID}}}, nil
}

type stubExtractor struct {
	triples []graphbuilder.Triple
	err     error
}

func (e *stubExtractor) ExtractTriples(ctx context.Context, chunks []model.Chunk, cfg graphbuilder.Config) ([]graphbuilder.Triple, []string, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	return e.triples, nil, nil
}

type stubEmbedder struct{ dim int }

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

type stubGraphStore struct {
	storeErr error
	rows     []map[string]any
}

func (s *stubGraphStore) StoreGraph(ctx context.Context, kg *model.KnowledgeGraph, clearExisting bool) error {
	return s.storeErr
}

func (s *stubGraphStore) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return s.rows, nil
}

type stubVectorStore struct {
	addErr error
	count  int
}

func (s *stubVectorStore) Add(ctx context.Context, records []model.VectorRecord) error {
	return s.addErr
}

func (s *stubVectorStore) Status(ctx context.Context) (int, error) {
	return s.count, nil
}

type stubBM25Store struct {
	addErr   error
	docCount int
}

func (s *stubBM25Store) AddDocuments(docs []model.BM25Document) error {
	return s.addErr
}

func (s *stubBM25Store) Status() (int, int) {
	return s.docCount, s.docCount * 10
}

type stubKVStore struct {
	spo     *model.SPOIndex
	spoOK   bool
	stats   model.GraphStats
	statsOK bool
	saveErr error
}

func (s *stubKVStore) SaveSPOIndex(ctx context.Context, idx *model.SPOIndex) error { return s.saveErr }
func (s *stubKVStore) LoadSPOIndex(ctx context.Context) (*model.SPOIndex, bool, error) {
	return s.spo, s.spoOK, nil
}
func (s *stubKVStore) SaveGraphStats(ctx context.Context, stats model.GraphStats) error {
	return s.saveErr
}
func (s *stubKVStore) LoadGraphStats(ctx context.Context) (model.GraphStats, bool, error) {
	return s.stats, s.statsOK, nil
}

func sampleTriples() []graphbuilder.Triple {
	return []graphbuilder.Triple{
		{Subject: "Acme Corp", Predicate: "acquired", Object: "Widget Inc", SubjectType: "org", ObjectType: "org", Confidence: 0.9, SourceChunkID: "doc1#0"},
	}
}

func sampleDocs() []model.Document {
	return []model.Document{{ID: "doc1", Content: "Acme Corp acquired Widget Inc."}}
}

func TestBuild_RunsAllTenStepsSuccessfully(t *testing.T) {
	o := New(
		&stubChunker{},
		&stubExtractor{triples: sampleTriples()},
		&stubEmbedder{dim: 4},
		&stubGraphStore{},
		&stubVectorStore{},
		&stubVectorStore{},
		&stubBM25Store{},
		&stubKVStore{},
	)

	report, err := o.Build(context.Background(), sampleDocs(), model.ModeBuild, Config{
		GraphChunking:  chunker.Config{ChunkSize: 500},
		VectorChunking: chunker.Config{ChunkSize: 500},
		BM25Chunking:   chunker.Config{ChunkSize: 500},
		Extraction:     graphbuilder.Config{SPOBatchSize: 5},
	})

	require.NoError(t, err)
	require.Len(t, report.Steps, 10)
	assert.True(t, report.Success())
	assert.Equal(t, "chunker_graph_pass", report.Steps[0].Name)
	assert.Equal(t, "cache_graph_stats", report.Steps[9].Name)
	for _, s := range report.Steps {
		assert.Equal(t, model.StepOK, s.Status, s.Name)
	}
}

func TestBuild_ExtractionFailureStillAllowsVectorAndBM25Steps(t *testing.T) {
	o := New(
		&stubChunker{},
		&stubExtractor{err: errors.New("llm unavailable")},
		&stubEmbedder{dim: 4},
		&stubGraphStore{},
		&stubVectorStore{},
		&stubVectorStore{},
		&stubBM25Store{},
		&stubKVStore{},
	)

	report, err := o.Build(context.Background(), sampleDocs(), model.ModeBuild, Config{
		GraphChunking:  chunker.Config{ChunkSize: 500},
		VectorChunking: chunker.Config{ChunkSize: 500},
		BM25Chunking:   chunker.Config{ChunkSize: 500},
	})
	require.NoError(t, err)
	assert.False(t, report.Success())

	byName := map[string]model.StepStatus{}
	for _, s := range report.Steps {
		byName[s.Name] = s.Status
	}
	assert.Equal(t, model.StepFailed, byName["extract_relations"])
	assert.Equal(t, model.StepFailed, byName["persist_graph"])
	assert.Equal(t, model.StepOK, byName["index_document_vectors"])
	assert.Equal(t, model.StepOK, byName["index_bm25"])
	assert.Equal(t, model.StepFailed, byName["serialize_spo_index"])
}

func TestBuild_UnknownModeReturnsError(t *testing.T) {
	o := New(&stubChunker{}, &stubExtractor{}, &stubEmbedder{}, &stubGraphStore{}, &stubVectorStore{}, &stubVectorStore{}, &stubBM25Store{}, &stubKVStore{})
	_, err := o.Build(context.Background(), sampleDocs(), model.BuildMode("bogus"), Config{})
	assert.Error(t, err)
}

func TestQA_AllValidationsPass(t *testing.T) {
	o := New(
		&stubChunker{}, &stubExtractor{}, &stubEmbedder{},
		&stubGraphStore{rows: []map[string]any{{"c": 3}}},
		&stubVectorStore{count: 5},
		&stubVectorStore{count: 2},
		&stubBM25Store{docCount: 5},
		&stubKVStore{spoOK: true, statsOK: true},
	)

	report, err := o.Build(context.Background(), nil, model.ModeQA, Config{})
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Len(t, report.Steps, 6)
}

func TestQA_EmptyCollectionFailsThatStepOnly(t *testing.T) {
	o := New(
		&stubChunker{}, &stubExtractor{}, &stubEmbedder{},
		&stubGraphStore{rows: []map[string]any{{"c": 3}}},
		&stubVectorStore{count: 0},
		&stubVectorStore{count: 2},
		&stubBM25Store{docCount: 5},
		&stubKVStore{spoOK: true, statsOK: true},
	)

	report, err := o.Build(context.Background(), nil, model.ModeQA, Config{})
	require.NoError(t, err)
	assert.False(t, report.Success())
}

func TestFull_RunsBuildThenQA(t *testing.T) {
	o := New(
		&stubChunker{},
		&stubExtractor{triples: sampleTriples()},
		&stubEmbedder{dim: 4},
		&stubGraphStore{rows: []map[string]any{{"c": 1}}},
		&stubVectorStore{count: 1},
		&stubVectorStore{count: 1},
		&stubBM25Store{docCount: 1},
		&stubKVStore{spoOK: true, statsOK: true},
	)

	report, err := o.Build(context.Background(), sampleDocs(), model.ModeFull, Config{
		GraphChunking:  chunker.Config{ChunkSize: 500},
		VectorChunking: chunker.Config{ChunkSize: 500},
		BM25Chunking:   chunker.Config{ChunkSize: 500},
	})
	require.NoError(t, err)
	assert.Len(t, report.Steps, 16) // 10 build + 6 qa
	assert.True(t, report.Success())
}

func TestBuild_CancelledContextSkipsAllSteps(t *testing.T) {
	o := New(&stubChunker{}, &stubExtractor{}, &stubEmbedder{}, &stubGraphStore{}, &stubVectorStore{}, &stubVectorStore{}, &stubBM25Store{}, &stubKVStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := o.Build(ctx, sampleDocs(), model.ModeBuild, Config{})
	require.NoError(t, err)
	for _, s := range report.Steps {
		assert.Equal(t, model.StepSkipped, s.Status)
	}
}
