// Package retriever implements C10: the base hybrid retriever that fans a
// query out to the vector, BM25, and graph indexes concurrently and fuses
// the three ranked lists into one.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// VectorSearcher is the C3 boundary this retriever fans out to.
type VectorSearcher interface {
	Search(ctx context.Context, queryVec []float32, topK int, minScore float64) ([]model.VectorMatch, error)
}

// BM25Searcher is the C4 boundary.
type BM25Searcher interface {
	Search(query string, topK int, minScore float64) []model.RetrievalResult
}

// GraphSearcher is the C5 boundary used in keyword mode.
type GraphSearcher interface {
	SearchEntitiesByKeyword(ctx context.Context, keywords []string, maxNodes int) ([]model.RetrievalResult, error)
}

// QueryEmbedder is the C1 boundary used to embed the query text before
// searching the vector index.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Weights are the per-source fusion weights (spec.md §4.7; exposed as
// config per the Open Question in SPEC_FULL.md §9(a)).
type Weights struct {
	Vector float64
	BM25   float64
	Graph  float64
}

// DefaultWeights matches spec.md §4.7's defaults.
var DefaultWeights = Weights{Vector: 0.5, BM25: 0.3, Graph: 0.2}

// Retriever runs the three-source concurrent fan-out and fusion.
type Retriever struct {
	embedder QueryEmbedder
	vector   VectorSearcher
	bm25     BM25Searcher
	graph    GraphSearcher
	weights  Weights
}

// New builds a Retriever. graph may be nil, in which case graph search is
// skipped (matches spec.md §9(c): a builder that omits the graph-embedding
// collection must disable graph retrieval, not fail at query time here).
func New(embedder QueryEmbedder, vector VectorSearcher, bm25 BM25Searcher, graph GraphSearcher, weights Weights) *Retriever {
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	return &Retriever{embedder: embedder, vector: vector, bm25: bm25, graph: graph, weights: weights}
}

// Retrieve runs the three searches concurrently, applying strategy's
// per-source thresholds and top_k (spec.md §4.6's "per-source threshold
// discipline": each source is filtered with its own cutoff before results
// are ever merged), then tags and fuses the surviving results.
func (r *Retriever) Retrieve(ctx context.Context, query string, keywords []string, strategy model.RetrievalStrategy) ([]model.RetrievalResult, error) {
	topK := strategy.TopK
	if topK <= 0 {
		topK = 20
	}

	var vectorResults, bm25Results, graphResults []model.RetrievalResult

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if r.vector == nil || r.embedder == nil {
			return nil
		}
		vec, err := r.embedder.EmbedOne(gctx, query)
		if err != nil {
			slog.Warn("retriever: query embedding failed, skipping vector source", "error", err)
			return nil
		}
		matches, err := r.vector.Search(gctx, vec, topK, strategy.VectorThreshold)
		if err != nil {
			slog.Warn("retriever: vector search failed, skipping", "error", err)
			return nil
		}
		vectorResults = make([]model.RetrievalResult, len(matches))
		for i, m := range matches {
			vectorResults[i] = matchToResult(m)
		}
		return nil
	})

	g.Go(func() error {
		if r.bm25 == nil {
			return nil
		}
		bm25Results = r.bm25.Search(query, topK, strategy.BM25MinScore)
		return nil
	})

	g.Go(func() error {
		if r.graph == nil || len(keywords) == 0 {
			return nil
		}
		results, err := r.graph.SearchEntitiesByKeyword(gctx, keywords, topK)
		if err != nil {
			slog.Warn("retriever: graph search failed, skipping", "error", err)
			return nil
		}
		graphResults = filterByScore(results, strategy.GraphThreshold)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retriever.Retrieve: %w", err)
	}

	return fuse(vectorResults, bm25Results, graphResults, r.weights), nil
}

func filterByScore(results []model.RetrievalResult, minScore float64) []model.RetrievalResult {
	out := make([]model.RetrievalResult, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

func matchToResult(m model.VectorMatch) model.RetrievalResult {
	return model.RetrievalResult{
		Content: m.Payload.Content,
		Score:   m.Score,
		Metadata: mergeMeta(m.Payload.Metadata, map[string]string{
			model.MetaSearchSource: string(model.SourceVector),
			model.MetaType:         string(model.TypeDocumentChunk),
		}),
		Source:  model.SourceVector,
		ChunkID: m.ID,
		Type:    model.TypeDocumentChunk,
	}
}

func mergeMeta(base map[string]string, add map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(add))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range add {
		out[k] = v
	}
	return out
}

// fuse scales each source's scores by that source's top score (see
// normalizePerSource; not min-max), tags each result's metadata with its
// search_source and type where missing, then applies weighted-sum fusion
// (spec.md §4.7): a result seen from more than one source accumulates each
// source's weight * normalized-score, so agreement across sources pushes it
// above a solo hit rather than the sources staying forever separate.
func fuse(vector, bm25, graph []model.RetrievalResult, w Weights) []model.RetrievalResult {
	vector = normalizePerSource(vector)
	bm25 = normalizePerSource(bm25)
	graph = normalizePerSource(graph)

	type accum struct {
		result model.RetrievalResult
		score  float64
	}
	scores := make(map[string]*accum)

	apply := func(results []model.RetrievalResult, weight float64) {
		for _, res := range results {
			tags := map[string]string{}
			if res.Metadata[model.MetaSearchSource] == "" {
				tags[model.MetaSearchSource] = string(res.Source)
			}
			if res.Metadata[model.MetaType] == "" {
				tags[model.MetaType] = string(res.Type)
			}
			if len(tags) > 0 {
				res.Metadata = mergeMeta(res.Metadata, tags)
			}
			key := fuseKey(res)
			weighted := weight * res.Score
			if a, ok := scores[key]; ok {
				a.score += weighted
				continue
			}
			scores[key] = &accum{result: res, score: weighted}
		}
	}

	apply(vector, w.Vector)
	apply(bm25, w.BM25)
	apply(graph, w.Graph)

	out := make([]model.RetrievalResult, 0, len(scores))
	for _, a := range scores {
		a.result.Score = a.score
		out = append(out, a.result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// fuseKey identifies a result across sources by ChunkID (or raw content when
// a result has no ChunkID; graph hits carry their entity id), deliberately omitting
// Source so the same chunk reached via two sources collides into one entry.
func fuseKey(r model.RetrievalResult) string {
	if r.ChunkID != "" {
		return r.ChunkID
	}
	return r.Content
}

// normalizePerSource scales a source's scores into [0,1] by dividing by the
// batch's top score, not by (score-min)/(max-min). Subtracting the observed
// batch minimum would zero out the worst result in every batch regardless of
// its absolute relevance, which erases exactly the magnitude information fuse
// needs to tell "barely above threshold" from "strong second source hit"
// apart once weighted-summed. Scores are expected non-negative (bm25 and
// cosine-similarity sources both are); any stray negative clamps to 0.
func normalizePerSource(results []model.RetrievalResult) []model.RetrievalResult {
	if len(results) == 0 {
		return results
	}
	hi := results[0].Score
	for _, r := range results {
		if r.Score > hi {
			hi = r.Score
		}
	}
	out := make([]model.RetrievalResult, len(results))
	for i, r := range results {
		switch {
		case hi <= 0:
			r.Score = 0
		case r.Score <= 0:
			r.Score = 0
		default:
			r.Score = r.Score / hi
		}
		out[i] = r
	}
	return out
}
