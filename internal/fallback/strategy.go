// Package fallback implements C11: the adaptive fallback controller that
// escalates through a ladder of increasingly permissive retrieval strategies,
// and the direct-entity/full-text escape hatches of last resort.
package fallback

import (
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// Ladder is the fixed, monotone strategy ladder of spec.md §4.6: later
// strategies are strictly more permissive.
var Ladder = []model.RetrievalStrategy{
	{Name: "strict", VectorThreshold: 0.50, GraphThreshold: 0.40, BM25MinScore: 0.25, TopK: 30, Description: "high-confidence exact matches only"},
	{Name: "standard", VectorThreshold: 0.30, GraphThreshold: 0.20, BM25MinScore: 0.15, TopK: 60, Description: "default operating point"},
	{Name: "relaxed", VectorThreshold: 0.20, GraphThreshold: 0.10, BM25MinScore: 0.08, TopK: 100, Description: "broader recall for vague or long queries"},
	{Name: "fuzzy", VectorThreshold: 0.15, GraphThreshold: 0.08, BM25MinScore: 0.04, TopK: 150, Description: "low-confidence queries needing fuzzy matching"},
	{Name: "aggressive", VectorThreshold: 0.10, GraphThreshold: 0.05, BM25MinScore: 0.02, TopK: 200, Description: "last rung before direct-entity escape"},
}

// startIndex chooses the ladder rung C11 begins escalation from, per
// spec.md §4.6 step 2's top-down, first-match-wins rules.
func startIndex(q model.ProcessedQuery) int {
	switch q.QueryType {
	case model.QuerySpecificInquiry, model.QueryCommitmentInquiry, model.QueryEnumeration,
		model.QueryClassification, model.QueryServiceInquiry:
		return indexOf("relaxed")
	}
	if len([]rune(q.Original)) > 20 {
		return indexOf("relaxed")
	}
	if len(q.Keywords) >= 3 {
		return indexOf("standard")
	}
	if q.Confidence > 0.8 && len(q.Entities) > 0 && len([]rune(q.Original)) < 15 {
		return indexOf("strict")
	}
	if q.Confidence > 0.6 {
		return indexOf("standard")
	}
	return indexOf("relaxed")
}

func indexOf(name string) int {
	for i, s := range Ladder {
		if s.Name == name {
			return i
		}
	}
	return 0
}
