package graphbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// surfaceGroup accumulates the surface forms of one canonical entity while
// triples are scanned.
type surfaceGroup struct {
	entityType     string
	bestName       string
	bestConfidence float64
	sourceChunkIDs map[string]struct{}
}

// Canonicalize runs stage 2: surface forms are normalized and grouped by
// (normalized_name, entity_type); each group yields one canonical Entity
// named after its highest-confidence source form. Relationships are
// deduplicated on (source, target, relation_type) with confidences maxed
// (spec.md §4.5).
func Canonicalize(triples []Triple) (*model.KnowledgeGraph, error) {
	groups := make(map[string]*surfaceGroup)

	record := func(name, entityType string, confidence float64, chunkID string) string {
		key := model.NormalizeEntityName(name) + "\x00" + strings.ToLower(strings.TrimSpace(entityType))
		g, ok := groups[key]
		if !ok {
			g = &surfaceGroup{entityType: entityType, bestName: name, bestConfidence: confidence, sourceChunkIDs: map[string]struct{}{}}
			groups[key] = g
		} else if confidence > g.bestConfidence {
			g.bestName = name
			g.bestConfidence = confidence
		}
		if chunkID != "" {
			g.sourceChunkIDs[chunkID] = struct{}{}
		}
		return key
	}

	type relKey struct{ source, target, relType string }
	relationships := make(map[relKey]*model.Relationship)

	for _, t := range triples {
		subjKey := record(t.Subject, t.SubjectType, t.Confidence, t.SourceChunkID)
		objKey := record(t.Object, t.ObjectType, t.Confidence, t.SourceChunkID)
		subjID := model.EntityID(subjKey)
		objID := model.EntityID(objKey)

		rk := relKey{subjID, objID, t.Predicate}
		if existing, ok := relationships[rk]; ok {
			if t.Confidence > existing.Confidence {
				existing.Confidence = t.Confidence
			}
			continue
		}
		relationships[rk] = &model.Relationship{
			ID:             model.RelationID(subjID, objID, t.Predicate),
			SourceEntityID: subjID,
			TargetEntityID: objID,
			RelationType:   t.Predicate,
			Confidence:     t.Confidence,
		}
	}

	kg := model.NewKnowledgeGraph()
	for key, g := range groups {
		chunkIDs := make([]string, 0, len(g.sourceChunkIDs))
		for id := range g.sourceChunkIDs {
			chunkIDs = append(chunkIDs, id)
		}
		sort.Strings(chunkIDs)

		kg.AddEntity(&model.Entity{
			ID:             model.EntityID(key),
			Name:           g.bestName,
			EntityType:     g.entityType,
			Confidence:     g.bestConfidence,
			SourceChunkIDs: chunkIDs,
		})
	}

	for _, r := range relationships {
		if err := kg.AddRelationship(r); err != nil {
			return nil, fmt.Errorf("graphbuilder.Canonicalize: %w", err)
		}
	}

	// Tag community anchors (spec.md §3 supplement) now, while the full
	// adjacency is already in memory, instead of recomputing degree at
	// every later graph query.
	kg.CommunityAnchors(topRelationsPerCommunitySummary)

	return kg, nil
}

// topRelationsPerCommunitySummary caps how many of an anchor's strongest
// relations are named in its synthesized community summary.
const topRelationsPerCommunitySummary = 5
