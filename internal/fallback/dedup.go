package fallback

import (
	"strings"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

const dedupScanWindow = 3

// dedupe admits results in order, dropping any that collapse into a result
// already admitted within the last dedupScanWindow admissions (spec.md
// §4.6's dedup policy, bounded to avoid O(n^2) on large lists). The first
// (by strategy/expanded-query order) of a duplicate pair survives.
func dedupe(results []model.RetrievalResult) []model.RetrievalResult {
	var admitted []model.RetrievalResult
	for _, r := range results {
		if isDuplicate(r, admitted) {
			continue
		}
		admitted = append(admitted, r)
	}
	return admitted
}

func isDuplicate(candidate model.RetrievalResult, admitted []model.RetrievalResult) bool {
	start := 0
	if len(admitted) > dedupScanWindow {
		start = len(admitted) - dedupScanWindow
	}
	for i := len(admitted) - 1; i >= start; i-- {
		if collides(candidate, admitted[i]) {
			return true
		}
	}
	return false
}

// collides implements spec.md §4.6's three-clause dedup test: shared
// chunk_id, or matching head/tail with high word overlap, or very high word
// overlap alone. A large length imbalance short-circuits to "not duplicate"
// since it almost always means one is a supersetting context window, not a
// near-duplicate of the other.
func collides(a, b model.RetrievalResult) bool {
	if a.ChunkID != "" && a.ChunkID == b.ChunkID {
		return true
	}

	lenA, lenB := len(a.Content), len(b.Content)
	if lenA == 0 || lenB == 0 {
		return false
	}
	longer, shorter := lenA, lenB
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	if float64(longer-shorter)/float64(longer) > 0.30 {
		return false
	}

	jaccard := jaccardOverlap(a.Content, b.Content)
	if jaccard >= 0.95 {
		return true
	}
	if jaccard >= 0.8 && sharesHeadAndTail(a.Content, b.Content, 100) {
		return true
	}
	return false
}

func sharesHeadAndTail(a, b string, n int) bool {
	return prefix(a, n) == prefix(b, n) && suffix(a, n) == suffix(b, n)
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func suffix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func jaccardOverlap(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[strings.ToLower(f)] = true
	}
	return set
}
