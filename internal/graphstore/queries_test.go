package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

func TestRowsToEntityResults_MapsFields(t *testing.T) {
	rows := []map[string]any{
		{"id": "entity_1", "name": "Ada Lovelace", "entity_type": "Person", "description": "mathematician"},
	}
	out := rowsToEntityResults(rows, model.SourceGraph)
	require.Len(t, out, 1)
	assert.Equal(t, "Ada Lovelace: mathematician", out[0].Content)
	assert.Equal(t, model.TypeEntity, out[0].Type)
	assert.Equal(t, "entity_1", out[0].ChunkID)
}

func TestCommunityResultsFromRows_SkipsEntitiesWithoutSummary(t *testing.T) {
	rows := []map[string]any{
		{"id": "entity_1", "name": "Hub", "community_summary": "Hub -> Leaf A; Hub -> Leaf B"},
		{"id": "entity_2", "name": "Leaf", "community_summary": ""},
	}
	out := communityResultsFromRows(rows, model.SourceGraph)
	require.Len(t, out, 1)
	assert.Equal(t, model.TypeCommunity, out[0].Type)
	assert.Contains(t, out[0].Content, "Hub")
	assert.Contains(t, out[0].Content, "Hub -> Leaf A")
	assert.Equal(t, "entity_1#community", out[0].ChunkID)
}
