// Package graphstore implements C5: a Neo4j-backed property graph with
// Cypher query access, per the storage boundary's Graph capability set
// (store_graph, execute_query, close — spec.md §6).
package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// Store wraps a Neo4j driver. One Store instance serves the whole process —
// per spec.md §9(b), exactly one handle per collection/store per process.
type Store struct {
	driver neo4j.DriverWithContext
}

// NewStore opens a Neo4j driver and verifies connectivity.
func NewStore(ctx context.Context, uri, username, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, kernelerr.Wrap(kernelerr.KindStorageUnavailable, fmt.Errorf("graphstore.NewStore: %w", err))
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, kernelerr.Wrap(kernelerr.KindStorageUnavailable, fmt.Errorf("graphstore.NewStore: verify connectivity: %w", err))
	}
	return &Store{driver: driver}, nil
}

// Close releases the underlying driver's resources.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// StoreGraph persists kg in one transaction per phase: optionally clearing
// the existing graph, then UNWIND/MERGE-batching entities and relationships
// (idiomatic Neo4j bulk-write pattern). Called once per build; skipped
// entirely in qa mode, where the graph is read-only.
func (s *Store) StoreGraph(ctx context.Context, kg *model.KnowledgeGraph, clearExisting bool) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if clearExisting {
		if _, err := session.Run(ctx, `MATCH (n:Entity) DETACH DELETE n`, nil); err != nil {
			return kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("graphstore.StoreGraph: clear existing: %w", err))
		}
	}

	entityRows := make([]map[string]any, 0, len(kg.Entities))
	for _, e := range kg.Entities {
		entityRows = append(entityRows, map[string]any{
			"id":                e.ID,
			"name":              e.Name,
			"entity_type":       e.EntityType,
			"description":       e.Description,
			"confidence":        e.Confidence,
			"source_chunk_ids":  e.SourceChunkIDs,
			"community_summary": e.CommunitySummary,
		})
	}
	if len(entityRows) > 0 {
		_, err := session.Run(ctx, `
			UNWIND $rows AS row
			MERGE (e:Entity {id: row.id})
			SET e.name = row.name,
				e.entity_type = row.entity_type,
				e.description = row.description,
				e.confidence = row.confidence,
				e.source_chunk_ids = row.source_chunk_ids,
				e.community_summary = row.community_summary`,
			map[string]any{"rows": entityRows})
		if err != nil {
			return kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("graphstore.StoreGraph: merge entities: %w", err))
		}
	}

	relRows := make([]map[string]any, 0, len(kg.Relationships))
	for _, r := range kg.Relationships {
		relRows = append(relRows, map[string]any{
			"id":            r.ID,
			"source_id":     r.SourceEntityID,
			"target_id":     r.TargetEntityID,
			"relation_type": r.RelationType,
			"confidence":    r.Confidence,
		})
	}
	if len(relRows) > 0 {
		_, err := session.Run(ctx, `
			UNWIND $rows AS row
			MATCH (s:Entity {id: row.source_id})
			MATCH (t:Entity {id: row.target_id})
			MERGE (s)-[rel:RELATION {relation_type: row.relation_type}]->(t)
			SET rel.id = row.id,
				rel.confidence = row.confidence`,
			map[string]any{"rows": relRows})
		if err != nil {
			return kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("graphstore.StoreGraph: merge relationships: %w", err))
		}
	}

	return nil
}

// ExecuteQuery runs an arbitrary read Cypher query and returns each result
// row as a string-keyed map, per the storage boundary's execute_query op.
func (s *Store) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, kernelerr.Wrap(kernelerr.KindStorageQueryFailed, fmt.Errorf("graphstore.ExecuteQuery: %w", err))
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		row := make(map[string]any, len(rec.Keys))
		for _, key := range rec.Keys {
			v, _ := rec.Get(key)
			row[key] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
