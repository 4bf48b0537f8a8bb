// Package bm25 implements C4: an in-memory lexical inverted index scored
// with Okapi BM25. Unlike the teacher's Postgres ts_vector-backed full-text
// search, this index lives entirely in process memory so k1/b are tunable
// and per-query min-max normalization is possible before fusion.
package bm25

import (
	"math"
	"sort"
	"sync"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

type posting struct {
	docID string
	freq  int
}

// Index is a single in-memory inverted index. Safe for concurrent search
// while add_documents is not in progress; Add and Search both take the
// index's own lock to serialize writers against readers.
type Index struct {
	k1 float64
	b  float64

	mu          sync.RWMutex
	postings    map[string][]posting // token -> postings
	docLengths  map[string]int       // docID -> token count
	metadata    map[string]map[string]string
	content     map[string]string
	totalDocs   int
	totalTokens int
}

// New builds an empty Index with Okapi BM25 defaults (k1=1.2, b=0.75).
func New() *Index {
	return NewWithParams(defaultK1, defaultB)
}

// NewWithParams builds an empty Index with explicit k1/b.
func NewWithParams(k1, b float64) *Index {
	return &Index{
		k1:         k1,
		b:          b,
		postings:   make(map[string][]posting),
		docLengths: make(map[string]int),
		metadata:   make(map[string]map[string]string),
		content:    make(map[string]string),
	}
}

// AddDocuments incrementally updates postings and corpus statistics.
// Re-adding a doc ID replaces its prior postings and length.
func (idx *Index) AddDocuments(docs []model.BM25Document) error {
	if len(docs) == 0 {
		return nil
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, d := range docs {
		if d.ID == "" {
			return kernelerr.New(kernelerr.KindValidation, "bm25.AddDocuments: document has empty id")
		}
		if _, exists := idx.docLengths[d.ID]; exists {
			idx.removeLocked(d.ID)
		}

		tokens := d.TokenizedContent
		if len(tokens) == 0 {
			tokens = Tokenize(d.RawContent)
		}

		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		for tok, freq := range counts {
			idx.postings[tok] = append(idx.postings[tok], posting{docID: d.ID, freq: freq})
		}

		idx.docLengths[d.ID] = len(tokens)
		idx.metadata[d.ID] = d.Metadata
		idx.content[d.ID] = d.RawContent
		idx.totalDocs++
		idx.totalTokens += len(tokens)
	}
	return nil
}

// removeLocked drops docID's postings and stats. Caller holds idx.mu.
func (idx *Index) removeLocked(docID string) {
	length, ok := idx.docLengths[docID]
	if !ok {
		return
	}
	for tok, posts := range idx.postings {
		kept := posts[:0]
		for _, p := range posts {
			if p.docID != docID {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(idx.postings, tok)
		} else {
			idx.postings[tok] = kept
		}
	}
	delete(idx.docLengths, docID)
	delete(idx.metadata, docID)
	delete(idx.content, docID)
	idx.totalDocs--
	idx.totalTokens -= length
}

// Search tokenizes query, accumulates BM25 over intersecting postings, and
// returns the top-k results with score >= minScore, min-max normalized to
// [0,1] per query (spec.md §4.4) so fusion with vector scores is meaningful.
func (idx *Index) Search(query string, topK int, minScore float64) []model.RetrievalResult {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.totalDocs == 0 {
		return nil
	}
	if topK <= 0 {
		topK = 10
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	avgDocLen := float64(idx.totalTokens) / float64(idx.totalDocs)
	scores := make(map[string]float64)

	seen := make(map[string]bool)
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true

		posts := idx.postings[tok]
		if len(posts) == 0 {
			continue
		}
		idf := idfScore(idx.totalDocs, len(posts))

		for _, p := range posts {
			docLen := float64(idx.docLengths[p.docID])
			tf := float64(p.freq)
			denom := tf + idx.k1*(1-idx.b+idx.b*docLen/avgDocLen)
			scores[p.docID] += idf * (tf * (idx.k1 + 1)) / denom
		}
	}
	if len(scores) == 0 {
		return nil
	}

	normalized := minMaxNormalize(scores)

	type scored struct {
		docID string
		score float64
	}
	ranked := make([]scored, 0, len(normalized))
	for id, s := range normalized {
		if s >= minScore {
			ranked = append(ranked, scored{docID: id, score: s})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].docID < ranked[j].docID
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	results := make([]model.RetrievalResult, 0, len(ranked))
	for _, r := range ranked {
		meta := cloneMeta(idx.metadata[r.docID])
		meta[model.MetaSearchSource] = string(model.SourceBM25)
		meta[model.MetaType] = string(model.TypeBM25Chunk)
		results = append(results, model.RetrievalResult{
			Content:  idx.content[r.docID],
			Score:    r.score,
			Metadata: meta,
			Source:   model.SourceBM25,
			ChunkID:  r.docID,
			Type:     model.TypeBM25Chunk,
		})
	}
	return results
}

// Status reports the document and distinct-token count.
func (idx *Index) Status() (docCount, tokenCount int) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.totalDocs, len(idx.postings)
}

func idfScore(totalDocs, docFreq int) float64 {
	// +1 numerator/denominator guard keeps idf finite and non-negative when
	// docFreq == totalDocs (a term appearing in every document).
	n := float64(totalDocs)
	df := float64(docFreq)
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

func minMaxNormalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}
	min, max := scoreRange(scores)
	out := make(map[string]float64, len(scores))
	if max == min {
		for id := range scores {
			out[id] = 1.0
		}
		return out
	}
	for id, s := range scores {
		out[id] = (s - min) / (max - min)
	}
	return out
}

func scoreRange(scores map[string]float64) (min, max float64) {
	first := true
	for _, s := range scores {
		if first {
			min, max = s, s
			first = false
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max
}

func cloneMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
