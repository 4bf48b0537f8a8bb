package model

import "strconv"

// Collection names for the two logical vector collections spec.md §3 names.
const (
	CollectionDocumentChunk  = "document-chunk"
	CollectionGraphEmbedding = "graph-embedding"
)

// VectorRecord is the (id, vector, payload) tuple stored in a vector
// collection. All records within one collection share the same vector
// dimension — enforced by the embedding router at construction and
// re-validated by the vector index on add.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload VectorPayload
}

// VectorPayload is the content+metadata carried alongside a vector.
type VectorPayload struct {
	Content  string
	Metadata map[string]string
}

// VectorMatch is one hit from a vector index search.
type VectorMatch struct {
	ID      string
	Score   float64
	Payload VectorPayload
}

// ChunkVectorID formats the deterministic id for a document-chunk vector
// record: doc_{docIndex}_chunk_{chunkIndex}.
func ChunkVectorID(docIndex, chunkIndex int) string {
	return "doc_" + strconv.Itoa(docIndex) + "_chunk_" + strconv.Itoa(chunkIndex)
}
