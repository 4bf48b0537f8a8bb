package bm25

import (
	"fmt"
	"testing"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

func buildCorpus(n int) []model.BM25Document {
	docs := make([]model.BM25Document, n)
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("document %d discusses graph retrieval augmented generation over a corpus of legal filings", i)
		docs[i] = doc(fmt.Sprintf("doc-%d", i), content)
	}
	return docs
}

func BenchmarkAddDocuments(b *testing.B) {
	docs := buildCorpus(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx := New()
		_ = idx.AddDocuments(docs)
	}
}

func BenchmarkSearch(b *testing.B) {
	idx := New()
	_ = idx.AddDocuments(buildCorpus(5000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Search("graph retrieval augmented generation", 20, 0.0)
	}
}
