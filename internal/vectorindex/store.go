// Package vectorindex implements C3: a pgvector-backed store of
// (id, vector, payload) records with cosine nearest-neighbor search. The
// same Store type backs both logical collections spec.md §3 names
// ("document-chunk" and "graph-embedding"), distinguished only by the table
// each collection name resolves to.
package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// tableFor maps a collection name to its backing table. Both tables have an
// identical shape; the orchestrator never mixes records across collections.
func tableFor(collection string) (string, error) {
	switch collection {
	case model.CollectionDocumentChunk:
		return "document_chunk_vectors", nil
	case model.CollectionGraphEmbedding:
		return "graph_embedding_vectors", nil
	default:
		return "", kernelerr.New(kernelerr.KindConfigInvalid, "vectorindex: unknown collection %q", collection)
	}
}

// Store is one collection instance of the vector index.
type Store struct {
	pool      *pgxpool.Pool
	table     string
	dim       int
	tenantTag string
}

// Options configures NewStore.
type Options struct {
	Collection       string
	Dimension        int
	RecreateIfExists bool
	// TenantTag scopes every Add/Search call, per spec.md §1's allowance for
	// "a tenant tag propagated to the storage layer". Empty means untagged.
	TenantTag string
}

// NewStore opens (and, per RecreateIfExists, recreates) the table backing
// Options.Collection, sized for Options.Dimension.
func NewStore(ctx context.Context, pool *pgxpool.Pool, opts Options) (*Store, error) {
	if opts.Dimension <= 0 {
		return nil, kernelerr.New(kernelerr.KindConfigInvalid, "vectorindex.NewStore: dimension must be positive")
	}
	table, err := tableFor(opts.Collection)
	if err != nil {
		return nil, err
	}

	s := &Store{pool: pool, table: table, dim: opts.Dimension, tenantTag: opts.TenantTag}
	if err := s.ensureTable(ctx, opts.RecreateIfExists); err != nil {
		return nil, kernelerr.Wrap(kernelerr.KindStorageUnavailable, err)
	}
	return s, nil
}

func (s *Store) ensureTable(ctx context.Context, recreate bool) error {
	if recreate {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table)); err != nil {
			return fmt.Errorf("vectorindex: drop %s: %w", s.table, err)
		}
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		tenant_tag TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		embedding vector(%d) NOT NULL
	)`, s.table, s.dim)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("vectorindex: create %s: %w", s.table, err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING ivfflat (embedding vector_cosine_ops)`, s.table, s.table)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("vectorindex: index %s: %w", s.table, err)
	}
	return nil
}

// Add inserts or replaces records, batched via pgx.Batch (teacher's
// BulkInsert pattern in repository/chunk.go).
func (s *Store) Add(ctx context.Context, records []model.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Vector) != s.dim {
			return kernelerr.New(kernelerr.KindValidation, "vectorindex.Add: record %q has dimension %d, want %d", r.ID, len(r.Vector), s.dim)
		}
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		metaJSON, err := json.Marshal(r.Payload.Metadata)
		if err != nil {
			return fmt.Errorf("vectorindex.Add: marshal metadata for %q: %w", r.ID, err)
		}
		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (id, tenant_tag, content, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				tenant_tag = EXCLUDED.tenant_tag,
				content = EXCLUDED.content,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding`, s.table),
			r.ID, s.tenantTag, r.Payload.Content, metaJSON, pgvector.NewVector(r.Vector),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range records {
		if _, err := br.Exec(); err != nil {
			return kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("vectorindex.Add: record %d: %w", i, err))
		}
	}
	return nil
}

// Search returns the topK nearest neighbors to queryVec with score >= minScore.
func (s *Store) Search(ctx context.Context, queryVec []float32, topK int, minScore float64) ([]model.VectorMatch, error) {
	if len(queryVec) != s.dim {
		return nil, kernelerr.New(kernelerr.KindValidation, "vectorindex.Search: query dimension %d, want %d", len(queryVec), s.dim)
	}
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		WHERE tenant_tag = $2 AND (1 - (embedding <=> $1::vector)) >= $3
		ORDER BY embedding <=> $1::vector
		LIMIT $4`, s.table)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(queryVec), s.tenantTag, minScore, topK)
	if err != nil {
		return nil, kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("vectorindex.Search: %w", err))
	}
	defer rows.Close()

	var matches []model.VectorMatch
	for rows.Next() {
		var m model.VectorMatch
		var metaJSON []byte
		if err := rows.Scan(&m.ID, &m.Payload.Content, &metaJSON, &m.Score); err != nil {
			return nil, fmt.Errorf("vectorindex.Search: scan: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &m.Payload.Metadata); err != nil {
				return nil, fmt.Errorf("vectorindex.Search: unmarshal metadata: %w", err)
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Status reports the record count in this collection.
func (s *Store) Status(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE tenant_tag = $1`, s.table)
	if err := s.pool.QueryRow(ctx, query, s.tenantTag).Scan(&count); err != nil {
		return 0, kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("vectorindex.Status: %w", err))
	}
	return count, nil
}
