package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Entity is a canonicalized node in the knowledge graph. Name is not a
// primary key — id is content-derived (EntityID). Equality for dedup uses
// NormalizedKey, not ID.
type Entity struct {
	ID             string
	Name           string
	EntityType     string
	Description    string
	Confidence     float64
	SourceChunkIDs []string
	// CommunitySummary is non-empty for a community anchor: an entity whose
	// incident-relationship count reached CommunityDegreeThreshold after
	// canonicalization. It lists the entity's top relations by confidence so
	// the graph retrieval path can surface the anchor as a type=community
	// result alongside its bare entity hit.
	CommunitySummary string
}

// CommunityDegreeThreshold is the minimum incident-relationship count
// (spec.md §3 supplement) an entity needs to be tagged a community anchor.
const CommunityDegreeThreshold = 5

// NormalizedKey is the (normalized name, entity type) pair canonicalization
// groups surface forms by.
func (e Entity) NormalizedKey() string {
	return NormalizeEntityName(e.Name) + "\x00" + strings.ToLower(strings.TrimSpace(e.EntityType))
}

// NormalizeEntityName collapses whitespace, lowercases, and strips common
// surface punctuation so surface-form variants of the same entity collide.
func NormalizeEntityName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	joined := strings.Join(fields, " ")
	return strings.Trim(joined, ".,;:!?\"'()[]")
}

// EntityID derives a deterministic id for a canonical entity from its
// normalized key, per spec.md's `entity_{uuid}` id format.
func EntityID(normalizedKey string) string {
	return "entity_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(normalizedKey)).String()
}

// RelationID derives a deterministic id for a relationship from its
// (source, target, type) triple, per spec.md's `relation_{uuid}` id format.
func RelationID(sourceEntityID, targetEntityID, relationType string) string {
	key := sourceEntityID + "\x00" + targetEntityID + "\x00" + relationType
	return "relation_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// Relationship is a typed, directed edge between two canonical entities.
// Both endpoints must resolve to an existing entity at persist time.
type Relationship struct {
	ID             string
	SourceEntityID string
	TargetEntityID string
	RelationType   string
	Confidence     float64
}

// KnowledgeGraph is the in-memory graph assembled during build, before it is
// persisted to the graph store and released.
type KnowledgeGraph struct {
	Entities      map[string]*Entity
	Relationships map[string]*Relationship
	// adjacency maps entity id -> relationship ids incident to it, built
	// lazily by Adjacency().
	adjacency map[string][]string
}

// NewKnowledgeGraph returns an empty graph ready for AddEntity/AddRelationship.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		Entities:      make(map[string]*Entity),
		Relationships: make(map[string]*Relationship),
	}
}

// AddEntity inserts or overwrites an entity by id.
func (g *KnowledgeGraph) AddEntity(e *Entity) {
	g.Entities[e.ID] = e
	g.adjacency = nil
}

// AddRelationship inserts a relationship after validating both endpoints
// resolve to entities already in the graph (spec.md §3 invariant: no
// dangling edges).
func (g *KnowledgeGraph) AddRelationship(r *Relationship) error {
	if _, ok := g.Entities[r.SourceEntityID]; !ok {
		return fmt.Errorf("model.AddRelationship: dangling source entity %q", r.SourceEntityID)
	}
	if _, ok := g.Entities[r.TargetEntityID]; !ok {
		return fmt.Errorf("model.AddRelationship: dangling target entity %q", r.TargetEntityID)
	}
	g.Relationships[r.ID] = r
	g.adjacency = nil
	return nil
}

// Adjacency returns, for each entity id, the ids of relationships incident
// to it (as source or target). Computed lazily and cached until the next
// mutation.
func (g *KnowledgeGraph) Adjacency() map[string][]string {
	if g.adjacency != nil {
		return g.adjacency
	}
	adj := make(map[string][]string, len(g.Entities))
	for id, r := range g.Relationships {
		adj[r.SourceEntityID] = append(adj[r.SourceEntityID], id)
		adj[r.TargetEntityID] = append(adj[r.TargetEntityID], id)
	}
	g.adjacency = adj
	return adj
}

// Degree returns the number of relationships incident to entityID.
func (g *KnowledgeGraph) Degree(entityID string) int {
	return len(g.Adjacency()[entityID])
}

// TopRelationsSummary synthesizes a one-line description of entityID's
// strongest relations, highest confidence first, capped at n. Used to tag
// high-degree entities as community anchors (spec.md §3 supplement).
func (g *KnowledgeGraph) TopRelationsSummary(entityID string, n int) string {
	relIDs := g.Adjacency()[entityID]
	rels := make([]*Relationship, 0, len(relIDs))
	for _, id := range relIDs {
		if r, ok := g.Relationships[id]; ok {
			rels = append(rels, r)
		}
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].Confidence > rels[j].Confidence })
	if n > 0 && len(rels) > n {
		rels = rels[:n]
	}

	self := g.Entities[entityID]
	selfName := entityID
	if self != nil {
		selfName = self.Name
	}

	parts := make([]string, 0, len(rels))
	for _, r := range rels {
		other := r.TargetEntityID
		arrow := "->"
		if r.TargetEntityID == entityID {
			other = r.SourceEntityID
			arrow = "<-"
		}
		otherName := other
		if e, ok := g.Entities[other]; ok {
			otherName = e.Name
		}
		parts = append(parts, fmt.Sprintf("%s %s[%s] %s", selfName, arrow, r.RelationType, otherName))
	}
	return strings.Join(parts, "; ")
}

// CommunityAnchors returns the subset of kg's entities whose degree reached
// CommunityDegreeThreshold, each with CommunitySummary populated.
func (g *KnowledgeGraph) CommunityAnchors(topRelations int) []*Entity {
	var anchors []*Entity
	for id, e := range g.Entities {
		if g.Degree(id) < CommunityDegreeThreshold {
			continue
		}
		e.CommunitySummary = g.TopRelationsSummary(id, topRelations)
		anchors = append(anchors, e)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].ID < anchors[j].ID })
	return anchors
}

// Validate checks the build-time invariants from spec.md §3 and §8: every
// entity referenced by a relationship exists, every entity has at least one
// source chunk, and every entity/relationship has a populated confidence.
func (g *KnowledgeGraph) Validate() error {
	for _, r := range g.Relationships {
		if _, ok := g.Entities[r.SourceEntityID]; !ok {
			return fmt.Errorf("model.Validate: relationship %s references missing source entity %s", r.ID, r.SourceEntityID)
		}
		if _, ok := g.Entities[r.TargetEntityID]; !ok {
			return fmt.Errorf("model.Validate: relationship %s references missing target entity %s", r.ID, r.TargetEntityID)
		}
		if r.Confidence <= 0 {
			return fmt.Errorf("model.Validate: relationship %s has no confidence", r.ID)
		}
	}
	for id, e := range g.Entities {
		if len(e.SourceChunkIDs) == 0 {
			return fmt.Errorf("model.Validate: entity %s has no source chunks", id)
		}
		if e.Confidence <= 0 {
			return fmt.Errorf("model.Validate: entity %s has no confidence", id)
		}
	}
	return nil
}
