package graphstore

import (
	"context"
	"fmt"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// SearchEntitiesByKeyword runs a case-insensitive CONTAINS match against
// entity name/description for each keyword. C10's graph source calls it on
// every retrieval that has keywords (keyword Cypher, per spec.md §4.7).
func (s *Store) SearchEntitiesByKeyword(ctx context.Context, keywords []string, maxNodes int) ([]model.RetrievalResult, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if maxNodes <= 0 {
		maxNodes = 20
	}

	rows, err := s.ExecuteQuery(ctx, `
		UNWIND $keywords AS kw
		MATCH (e:Entity)
		WHERE toLower(e.name) CONTAINS toLower(kw) OR toLower(e.description) CONTAINS toLower(kw)
		RETURN DISTINCT e.id AS id, e.name AS name, e.entity_type AS entity_type, e.description AS description,
			e.community_summary AS community_summary
		LIMIT $limit`,
		map[string]any{"keywords": keywords, "limit": int64(maxNodes)})
	if err != nil {
		return nil, fmt.Errorf("graphstore.SearchEntitiesByKeyword: %w", err)
	}
	out := rowsToEntityResults(rows, model.SourceGraph)
	return append(out, communityResultsFromRows(rows, model.SourceGraph)...), nil
}

// DirectEntitySearch runs the four Cypher lookups spec.md §4.6 names for the
// direct-entity fallback path: exact name, contains, case-insensitive regex,
// and any Entity node whose name or description contains term
// (case-insensitive).
func (s *Store) DirectEntitySearch(ctx context.Context, term string, limit int) ([]model.RetrievalResult, error) {
	if limit <= 0 {
		limit = 10
	}
	queries := []string{
		`MATCH (e:Entity) WHERE e.name = $term RETURN e.id AS id, e.name AS name, e.entity_type AS entity_type, e.description AS description LIMIT $limit`,
		`MATCH (e:Entity) WHERE e.name CONTAINS $term RETURN e.id AS id, e.name AS name, e.entity_type AS entity_type, e.description AS description LIMIT $limit`,
		`MATCH (e:Entity) WHERE e.name =~ ('(?i).*' + $term + '.*') RETURN e.id AS id, e.name AS name, e.entity_type AS entity_type, e.description AS description LIMIT $limit`,
		`MATCH (e:Entity) WHERE toLower(e.name) CONTAINS toLower($term) OR toLower(e.description) CONTAINS toLower($term) RETURN e.id AS id, e.name AS name, e.entity_type AS entity_type, e.description AS description LIMIT $limit`,
	}

	seen := make(map[string]bool)
	var out []model.RetrievalResult
	for _, q := range queries {
		rows, err := s.ExecuteQuery(ctx, q, map[string]any{"term": term, "limit": int64(limit)})
		if err != nil {
			continue // direct-entity search is itself the last-resort fallback; a failing sub-query is non-fatal
		}
		for _, r := range rowsToEntityResults(rows, model.SourceDirectEntity) {
			if seen[r.ChunkID] {
				continue
			}
			seen[r.ChunkID] = true
			out = append(out, r)
		}
	}
	return out, nil
}

// FullTextSearch scans the name, description and entity_type properties of
// Entity nodes for term (case-insensitive), the last-resort escape hatch
// before returning an advisory result (spec.md §4.6 step 5). Other node
// properties are not searched.
func (s *Store) FullTextSearch(ctx context.Context, term string, limit int) ([]model.RetrievalResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.ExecuteQuery(ctx, `
		MATCH (e:Entity)
		WHERE toLower(e.name) CONTAINS toLower($term)
			OR toLower(e.description) CONTAINS toLower($term)
			OR toLower(e.entity_type) CONTAINS toLower($term)
		RETURN e.id AS id, e.name AS name, e.entity_type AS entity_type, e.description AS description
		LIMIT $limit`,
		map[string]any{"term": term, "limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("graphstore.FullTextSearch: %w", err)
	}
	return rowsToEntityResults(rows, model.SourceFullText), nil
}

func rowsToEntityResults(rows []map[string]any, source model.Source) []model.RetrievalResult {
	out := make([]model.RetrievalResult, 0, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		name, _ := row["name"].(string)
		entityType, _ := row["entity_type"].(string)
		description, _ := row["description"].(string)

		content := name
		if description != "" {
			content = name + ": " + description
		}

		out = append(out, model.RetrievalResult{
			Content: content,
			Score:   1.0, // re-scored by the caller's threshold/dedup pass; raw graph hits carry no intrinsic score
			Metadata: map[string]string{
				model.MetaSearchSource: string(source),
				model.MetaType:         string(model.TypeEntity),
				"entity_id":            id,
				"entity_type":          entityType,
			},
			Source:  source,
			ChunkID: id,
			Type:    model.TypeEntity,
		})
	}
	return out
}

// communityResultsFromRows emits one additional type=community result per
// row whose community_summary is non-empty (spec.md §3 supplement): a
// high-degree entity surfaces both as a bare entity hit and as a synthesized
// community summary, so the context assembler can place it under its own
// "Graph Info" section alongside ordinary entity/relationship hits.
func communityResultsFromRows(rows []map[string]any, source model.Source) []model.RetrievalResult {
	var out []model.RetrievalResult
	for _, row := range rows {
		summary, _ := row["community_summary"].(string)
		if summary == "" {
			continue
		}
		id, _ := row["id"].(string)
		name, _ := row["name"].(string)
		out = append(out, model.RetrievalResult{
			Content: fmt.Sprintf("%s (community): %s", name, summary),
			Score:   1.0,
			Metadata: map[string]string{
				model.MetaSearchSource: string(source),
				model.MetaType:         string(model.TypeCommunity),
				"entity_id":            id,
			},
			Source:  source,
			ChunkID: id + "#community",
			Type:    model.TypeCommunity,
		})
	}
	return out
}
