package model

// SPOEntry is one posting in an SPO index list: the other two positions of
// the triple plus the relationship id it came from.
type SPOEntry struct {
	Other1         string // (Other1, Other2) is (predicate, object) under subject, (subject, object) under predicate, (subject, predicate) under object
	Other2         string
	RelationshipID string
}

// SPOIndex is the three-parallel-map structure serialized as one JSON blob
// into the KV store (spec.md §3, §6). Keys are surface strings (entity names
// or relation types), values are postings into the relationships that
// mention them in that position.
type SPOIndex struct {
	SubjectIndex   map[string][]SPOEntry `json:"subject_index"`
	PredicateIndex map[string][]SPOEntry `json:"predicate_index"`
	ObjectIndex    map[string][]SPOEntry `json:"object_index"`
}

// NewSPOIndex returns an empty SPOIndex ready for population.
func NewSPOIndex() *SPOIndex {
	return &SPOIndex{
		SubjectIndex:   make(map[string][]SPOEntry),
		PredicateIndex: make(map[string][]SPOEntry),
		ObjectIndex:    make(map[string][]SPOEntry),
	}
}

// Add indexes one (subject, predicate, object) triple under all three maps.
func (idx *SPOIndex) Add(subject, predicate, object, relationshipID string) {
	idx.SubjectIndex[subject] = append(idx.SubjectIndex[subject], SPOEntry{Other1: predicate, Other2: object, RelationshipID: relationshipID})
	idx.PredicateIndex[predicate] = append(idx.PredicateIndex[predicate], SPOEntry{Other1: subject, Other2: object, RelationshipID: relationshipID})
	idx.ObjectIndex[object] = append(idx.ObjectIndex[object], SPOEntry{Other1: subject, Other2: predicate, RelationshipID: relationshipID})
}

// GraphStats is the build-time summary cached into the KV store alongside
// the SPO index (spec.md §6 persisted state layout).
type GraphStats struct {
	EntityCount       int            `json:"entity_count"`
	RelationshipCount int            `json:"relationship_count"`
	EntityTypes       map[string]int `json:"entity_types"`
	RelationshipTypes map[string]int `json:"relationship_types"`
	BuildTime         string         `json:"build_time"` // RFC3339 UTC
}
