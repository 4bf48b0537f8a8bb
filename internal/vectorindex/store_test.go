package vectorindex

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

func TestTableFor_UnknownCollection(t *testing.T) {
	_, err := tableFor("not-a-collection")
	require.Error(t, err)
}

func TestTableFor_KnownCollections(t *testing.T) {
	docTable, err := tableFor(model.CollectionDocumentChunk)
	require.NoError(t, err)
	require.Equal(t, "document_chunk_vectors", docTable)

	graphTable, err := tableFor(model.CollectionGraphEmbedding)
	require.NoError(t, err)
	require.Equal(t, "graph_embedding_vectors", graphTable)
}

func TestNewStore_RejectsNonPositiveDimension(t *testing.T) {
	_, err := NewStore(context.Background(), nil, Options{Collection: model.CollectionDocumentChunk, Dimension: 0})
	require.Error(t, err)
}

// setupStore connects to a real Postgres+pgvector instance; skipped unless
// DATABASE_URL is set, matching the teacher's integration-test pattern.
func setupStore(t *testing.T, collection string, dim int) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, dbURL, 5)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store, err := NewStore(ctx, pool, Options{Collection: collection, Dimension: dim, RecreateIfExists: true})
	require.NoError(t, err)
	return store
}

func TestStore_AddAndSearch(t *testing.T) {
	store := setupStore(t, model.CollectionDocumentChunk, 3)
	ctx := context.Background()

	err := store.Add(ctx, []model.VectorRecord{
		{ID: "a", Vector: []float32{1, 0, 0}, Payload: model.VectorPayload{Content: "alpha", Metadata: map[string]string{"k": "v"}}},
		{ID: "b", Vector: []float32{0, 1, 0}, Payload: model.VectorPayload{Content: "beta"}},
	})
	require.NoError(t, err)

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 5, 0.0)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.Equal(t, "a", matches[0].ID)
	require.Equal(t, "v", matches[0].Payload.Metadata["k"])

	count, err := store.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestStore_Add_RejectsDimensionMismatch(t *testing.T) {
	store := setupStore(t, model.CollectionDocumentChunk, 3)
	err := store.Add(context.Background(), []model.VectorRecord{
		{ID: "bad", Vector: []float32{1, 2}},
	})
	require.Error(t, err)
}

func TestStore_Search_RejectsDimensionMismatch(t *testing.T) {
	store := setupStore(t, model.CollectionDocumentChunk, 3)
	_, err := store.Search(context.Background(), []float32{1, 2}, 5, 0)
	require.Error(t, err)
}
