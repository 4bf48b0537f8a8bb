package graphbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

func TestCanonicalize_MergesSurfaceForms(t *testing.T) {
	triples := []Triple{
		{Subject: "ada lovelace", Predicate: "designed", Object: "Analytical Engine", SubjectType: "Person", ObjectType: "Artifact", Confidence: 0.6, SourceChunkID: "c1"},
		{Subject: "Ada Lovelace", Predicate: "designed", Object: "the Analytical Engine", SubjectType: "Person", ObjectType: "Artifact", Confidence: 0.9, SourceChunkID: "c2"},
	}

	kg, err := Canonicalize(triples)
	require.NoError(t, err)

	// Both "ada lovelace"/"Ada Lovelace" collapse to one entity, keeping the
	// higher-confidence display form.
	var adaFound bool
	for _, e := range kg.Entities {
		if e.EntityType == "Person" {
			adaFound = true
			assert.Equal(t, "Ada Lovelace", e.Name)
			assert.Equal(t, 0.9, e.Confidence)
		}
	}
	assert.True(t, adaFound)
}

func TestCanonicalize_DedupesRelationshipsMaxingConfidence(t *testing.T) {
	triples := []Triple{
		{Subject: "A", Predicate: "rel", Object: "B", Confidence: 0.3},
		{Subject: "A", Predicate: "rel", Object: "B", Confidence: 0.8},
	}

	kg, err := Canonicalize(triples)
	require.NoError(t, err)
	require.Len(t, kg.Relationships, 1)
	for _, r := range kg.Relationships {
		assert.Equal(t, 0.8, r.Confidence)
	}
}

func TestCanonicalize_NoDanglingEdges(t *testing.T) {
	triples := []Triple{
		{Subject: "A", Predicate: "rel", Object: "B", Confidence: 0.5},
		{Subject: "B", Predicate: "rel2", Object: "C", Confidence: 0.5},
	}
	kg, err := Canonicalize(triples)
	require.NoError(t, err)
	require.NoError(t, kg.Validate())
	assert.Len(t, kg.Entities, 3)
	assert.Len(t, kg.Relationships, 2)
}

func TestCanonicalize_EmptyInput(t *testing.T) {
	kg, err := Canonicalize(nil)
	require.NoError(t, err)
	assert.Empty(t, kg.Entities)
	assert.Empty(t, kg.Relationships)
}

func TestCanonicalize_TagsHighDegreeEntityAsCommunityAnchor(t *testing.T) {
	// "Hub" accrues five distinct incident relationships; every other entity
	// in this graph has degree 1 and must be left untagged.
	var triples []Triple
	for i, leaf := range []string{"Leaf A", "Leaf B", "Leaf C", "Leaf D", "Leaf E"} {
		triples = append(triples, Triple{
			Subject: "Hub", Predicate: "relates_to", Object: leaf, Confidence: 0.5 + 0.01*float64(i), SourceChunkID: "c1",
		})
	}

	kg, err := Canonicalize(triples)
	require.NoError(t, err)

	var hub *model.Entity
	for _, e := range kg.Entities {
		if e.Name == "Hub" {
			hub = e
		}
	}
	require.NotNil(t, hub)
	assert.GreaterOrEqual(t, kg.Degree(hub.ID), model.CommunityDegreeThreshold)
	assert.NotEmpty(t, hub.CommunitySummary)
	assert.Contains(t, hub.CommunitySummary, "Hub")

	for _, e := range kg.Entities {
		if e.Name != "Hub" {
			assert.Empty(t, e.CommunitySummary, "leaf entity %q should not be tagged a community anchor", e.Name)
		}
	}
}
