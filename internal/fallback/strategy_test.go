package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

func TestLadder_IsMonotonicallyMorePermissive(t *testing.T) {
	for i := 1; i < len(Ladder); i++ {
		assert.LessOrEqual(t, Ladder[i].VectorThreshold, Ladder[i-1].VectorThreshold)
		assert.LessOrEqual(t, Ladder[i].GraphThreshold, Ladder[i-1].GraphThreshold)
		assert.LessOrEqual(t, Ladder[i].BM25MinScore, Ladder[i-1].BM25MinScore)
		assert.GreaterOrEqual(t, Ladder[i].TopK, Ladder[i-1].TopK)
	}
}

func TestStartIndex_SpecificInquiryStartsRelaxed(t *testing.T) {
	q := model.ProcessedQuery{QueryType: model.QuerySpecificInquiry}
	assert.Equal(t, indexOf("relaxed"), startIndex(q))
}

func TestStartIndex_LongQueryStartsRelaxed(t *testing.T) {
	q := model.ProcessedQuery{Original: "this is a quite long query string over twenty characters"}
	assert.Equal(t, indexOf("relaxed"), startIndex(q))
}

func TestStartIndex_ManyKeywordsStartsStandard(t *testing.T) {
	q := model.ProcessedQuery{Original: "short", Keywords: []string{"a", "b", "c"}}
	assert.Equal(t, indexOf("standard"), startIndex(q))
}

func TestStartIndex_HighConfidenceShortWithEntitiesStartsStrict(t *testing.T) {
	q := model.ProcessedQuery{Original: "AgenticX", Confidence: 0.9, Entities: []string{"AgenticX"}}
	assert.Equal(t, indexOf("strict"), startIndex(q))
}

func TestStartIndex_ModerateConfidenceStartsStandard(t *testing.T) {
	q := model.ProcessedQuery{Original: "medium query", Confidence: 0.7}
	assert.Equal(t, indexOf("standard"), startIndex(q))
}

func TestStartIndex_DefaultsToRelaxed(t *testing.T) {
	q := model.ProcessedQuery{Original: "x", Confidence: 0.3}
	assert.Equal(t, indexOf("relaxed"), startIndex(q))
}
