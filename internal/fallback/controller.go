package fallback

import (
	"context"
	"fmt"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/queryanalyzer"
)

// Retriever is the C10 boundary: one hybrid search at a given strategy.
type Retriever interface {
	Retrieve(ctx context.Context, query string, keywords []string, strategy model.RetrievalStrategy) ([]model.RetrievalResult, error)
}

// EscapeHatch is the C5 boundary for the last-resort direct-entity and
// full-text scans (spec.md §4.6 step 5).
type EscapeHatch interface {
	DirectEntitySearch(ctx context.Context, term string, limit int) ([]model.RetrievalResult, error)
	FullTextSearch(ctx context.Context, term string, limit int) ([]model.RetrievalResult, error)
}

// Analyzer is the C9 boundary.
type Analyzer interface {
	Process(query string) model.ProcessedQuery
}

const maxExpandedQueries = 3

// escapeHatchLimit bounds result counts fetched per term during the
// direct-entity/full-text escape hatches.
const escapeHatchLimit = 10

// Controller runs the C11 escalation algorithm.
type Controller struct {
	analyzer  Analyzer
	retriever Retriever
	graph     EscapeHatch // nil disables the direct-entity/full-text escape hatches
}

// New builds a Controller. graph may be nil when no graph store is wired.
func New(analyzer Analyzer, retriever Retriever, graph EscapeHatch) *Controller {
	return &Controller{analyzer: analyzer, retriever: retriever, graph: graph}
}

// Retrieve runs the full C11 algorithm: analyze, pick a starting rung,
// escalate through the ladder across expanded queries, dedup, and — if
// every rung comes back empty — fall through to the direct-entity/full-text
// escape hatches before finally returning a single advisory result.
func (c *Controller) Retrieve(ctx context.Context, rawQuery string) ([]model.RetrievalResult, model.RetrievalReport, error) {
	processed := c.analyzer.Process(rawQuery)
	report := model.RetrievalReport{OriginalQuery: rawQuery, ProcessedQuery: processed}

	if processed.QueryType == model.QueryGreeting || processed.QueryType == model.QueryMeaningless {
		result := syntheticResult(processed.QueryType)
		report.StrategyUsed = "synthetic_" + string(processed.QueryType)
		report.TotalResults = 1
		report.Success = true
		return []model.RetrievalResult{result}, report, nil
	}

	searchQueries := queryanalyzer.GenerateSearchQueries(processed)
	if len(searchQueries) > maxExpandedQueries {
		searchQueries = searchQueries[:maxExpandedQueries]
	}
	report.SearchQueries = searchQueries

	start := startIndex(processed)
	for rung := start; rung < len(Ladder); rung++ {
		strategy := Ladder[rung]
		var collected []model.RetrievalResult
		for _, q := range searchQueries {
			results, err := c.retriever.Retrieve(ctx, q, processed.Entities, strategy)
			if err != nil {
				return nil, report, fmt.Errorf("fallback.Retrieve: rung %s: %w", strategy.Name, err)
			}
			collected = append(collected, results...)
		}

		deduped := dedupe(collected)
		if len(deduped) > 0 {
			sortByScoreDesc(deduped)
			report.StrategyUsed = strategy.Name
			report.TotalResults = len(deduped)
			report.Success = true
			return deduped, report, nil
		}
	}

	if c.graph != nil {
		if results := c.escapeHatch(ctx, processed); len(results) > 0 {
			report.StrategyUsed = "entity_search"
			report.TotalResults = len(results)
			report.Success = true
			return results, report, nil
		}
	}

	report.StrategyUsed = "fallback"
	report.TotalResults = 1
	report.Success = false
	report.Error = "no results at any strategy rung or escape hatch"
	return []model.RetrievalResult{fallbackAdvisory()}, report, nil
}

// escapeHatch runs direct-entity search (per term) then a full-text scan,
// swallowing per-term errors since this is itself the path of last resort.
func (c *Controller) escapeHatch(ctx context.Context, q model.ProcessedQuery) []model.RetrievalResult {
	terms := q.Entities
	if len(terms) == 0 {
		terms = q.Keywords
	}
	if len(terms) == 0 {
		terms = []string{q.Normalized}
	}

	var out []model.RetrievalResult
	for _, term := range terms {
		if results, err := c.graph.DirectEntitySearch(ctx, term, escapeHatchLimit); err == nil {
			out = append(out, results...)
		}
	}
	if len(out) > 0 {
		return dedupe(out)
	}

	for _, term := range terms {
		if results, err := c.graph.FullTextSearch(ctx, term, escapeHatchLimit); err == nil {
			out = append(out, results...)
		}
	}
	return dedupe(out)
}

func syntheticResult(qt model.QueryType) model.RetrievalResult {
	content := "Hello! Ask me anything about the indexed corpus and I'll do my best to help."
	if qt == model.QueryMeaningless {
		content = "I couldn't find a clear question to answer there — could you rephrase?"
	}
	return model.RetrievalResult{
		Content: content,
		Score:   1.0,
		Metadata: map[string]string{
			model.MetaSearchSource: "synthetic",
			model.MetaType:         "advisory",
		},
	}
}

func fallbackAdvisory() model.RetrievalResult {
	return model.RetrievalResult{
		Content: "No matching content was found for this query across any retrieval strategy.",
		Score:   0,
		Metadata: map[string]string{
			model.MetaSearchSource: "synthetic",
			model.MetaType:         "advisory",
		},
	}
}

func sortByScoreDesc(results []model.RetrievalResult) {
	// insertion sort: dedupe's output is already near-sorted per rung pass,
	// and result lists stay small (bounded by top_k <= 200).
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
