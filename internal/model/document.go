// Package model holds the data shapes shared across the retrieval and
// indexing kernel: documents, chunks, vector records, graph entities and
// relationships, BM25 postings, and the query/retrieval result types.
package model

// Document is an immutable record produced by a reader (out of core scope)
// and consumed by the chunker and indexers.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata carries the identity fields a Document or Chunk needs.
// ParentID and ChunkIndex are unset (empty/-1) on a source Document and set
// on a Chunk produced from it.
type DocumentMetadata struct {
	Name        string
	SourceURI   string
	ContentType string
	ParentID    string
	ChunkIndex  int
}

// Chunk has the same shape as Document; ParentID/ChunkIndex are always set.
// Produced by the chunker during build, referenced by vector/BM25 records,
// then discarded in memory once indexed.
type Chunk struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}
