package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

func doc(id, content string) model.BM25Document {
	return model.BM25Document{ID: id, RawContent: content, TokenizedContent: Tokenize(content)}
}

func TestAddDocuments_AndSearch(t *testing.T) {
	idx := New()
	err := idx.AddDocuments([]model.BM25Document{
		doc("d1", "the quick brown fox jumps over the lazy dog"),
		doc("d2", "lazy cats sleep most of the day"),
		doc("d3", "rockets need fuel to reach orbit"),
	})
	require.NoError(t, err)

	results := idx.Search("lazy dog", 10, 0.0)
	require.NotEmpty(t, results)
	assert.Equal(t, "d1", results[0].ChunkID)
	for _, r := range results {
		assert.Equal(t, model.SourceBM25, r.Source)
		assert.Equal(t, model.TypeBM25Chunk, r.Type)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestSearch_MinScoreFilters(t *testing.T) {
	idx := New()
	require.NoError(t, idx.AddDocuments([]model.BM25Document{
		doc("d1", "apples and oranges"),
		doc("d2", "completely unrelated content about weather"),
	}))

	all := idx.Search("apples", 10, 0.0)
	require.NotEmpty(t, all)

	strict := idx.Search("apples", 10, 0.99)
	assert.LessOrEqual(t, len(strict), len(all))
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := New()
	results := idx.Search("anything", 10, 0.0)
	assert.Empty(t, results)
}

func TestSearch_UnknownTermsReturnNothing(t *testing.T) {
	idx := New()
	require.NoError(t, idx.AddDocuments([]model.BM25Document{doc("d1", "hello world")}))
	results := idx.Search("xyzzy plugh", 10, 0.0)
	assert.Empty(t, results)
}

func TestAddDocuments_RejectsEmptyID(t *testing.T) {
	idx := New()
	err := idx.AddDocuments([]model.BM25Document{{ID: "", RawContent: "x"}})
	require.Error(t, err)
}

func TestAddDocuments_ReplacesExistingDoc(t *testing.T) {
	idx := New()
	require.NoError(t, idx.AddDocuments([]model.BM25Document{doc("d1", "original content about cats")}))
	require.NoError(t, idx.AddDocuments([]model.BM25Document{doc("d1", "replaced content about dogs")}))

	docCount, _ := idx.Status()
	assert.Equal(t, 1, docCount)

	catResults := idx.Search("cats", 10, 0.0)
	assert.Empty(t, catResults)
	dogResults := idx.Search("dogs", 10, 0.0)
	assert.NotEmpty(t, dogResults)
}

func TestTokenize_WordsAndCJKBigrams(t *testing.T) {
	tokens := Tokenize("Hello World 知识图谱")
	assert.Contains(t, tokens, "hello")
	assert.Contains(t, tokens, "world")
	assert.Contains(t, tokens, "知识")
	assert.Contains(t, tokens, "识图")
	assert.Contains(t, tokens, "图谱")
}

func TestTokenize_SingleCJKChar(t *testing.T) {
	tokens := Tokenize("中")
	assert.Equal(t, []string{"中"}, tokens)
}

func TestMinMaxNormalize_SingleScoreYieldsOne(t *testing.T) {
	out := minMaxNormalize(map[string]float64{"a": 5})
	assert.Equal(t, 1.0, out["a"])
}

func TestStatus_ReflectsCorpusSize(t *testing.T) {
	idx := New()
	require.NoError(t, idx.AddDocuments([]model.BM25Document{
		doc("d1", "alpha beta"),
		doc("d2", "gamma delta"),
	}))
	docCount, tokenCount := idx.Status()
	assert.Equal(t, 2, docCount)
	assert.Equal(t, 4, tokenCount)
}
