// Package context implements C12: assembling a ranked result list into a
// single, length-bounded context string grouped by result category.
package context

import (
	"fmt"
	"strings"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

const truncationMarker = "\n[truncated]"

// category buckets a RetrievalResult into one of the four sections C12
// assembles under.
type category int

const (
	categoryEntity category = iota
	categoryDocument
	categoryGraph
	categoryOther
)

func classify(r model.RetrievalResult) category {
	switch r.Type {
	case model.TypeEntity, model.TypeRelationship, model.TypeTriple:
		return categoryEntity
	case model.TypeDocumentChunk, model.TypeBM25Chunk:
		return categoryDocument
	case model.TypeCommunity:
		return categoryGraph
	default:
		return categoryOther
	}
}

var sectionHeaders = map[category]string{
	categoryEntity:   "Entity Info",
	categoryDocument: "Document Content",
	categoryGraph:    "Graph Info",
	categoryOther:    "Other Relevant",
}

// Config parameterizes context assembly.
type Config struct {
	TopK              int
	MaxContentPerItem int
	MaxContextLength  int
}

const (
	defaultMaxContentPerItem = 500
	defaultMaxContextLength  = 4000
)

// Assemble builds the labeled context string from a sorted results list
// (spec.md §4.9). Never returns empty for non-empty input.
func Assemble(results []model.RetrievalResult, cfg Config) string {
	if len(results) == 0 {
		return ""
	}
	maxPerItem := cfg.MaxContentPerItem
	if maxPerItem <= 0 {
		maxPerItem = defaultMaxContentPerItem
	}
	maxLen := cfg.MaxContextLength
	if maxLen <= 0 {
		maxLen = defaultMaxContextLength
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = len(results)
	}

	buckets := map[category][]model.RetrievalResult{}
	for _, r := range results {
		c := classify(r)
		buckets[c] = append(buckets[c], r)
	}

	if len(buckets) == 1 {
		if _, ok := buckets[categoryOther]; ok {
			// Nothing classified into a named section; emit the raw top-N
			// verbatim under a generic header, per the §4.9 safety net.
			return assembleGeneric(results, topK, maxPerItem, maxLen)
		}
	}

	perTypeQuota := (topK + 3) / 4 // ceil(top_k/4)
	selected, selectedSet := roundRobinSelect(buckets, perTypeQuota)
	selected = fillRemainder(selected, selectedSet, results, topK)

	return render(selected, maxPerItem, maxLen)
}

func assembleGeneric(results []model.RetrievalResult, topK, maxPerItem, maxLen int) string {
	n := topK
	if n > len(results) {
		n = len(results)
	}
	var b strings.Builder
	b.WriteString("## Results\n")
	for _, r := range results[:n] {
		b.WriteString(truncate(r.Content, maxPerItem))
		b.WriteString("\n")
	}
	return truncateOverall(b.String(), maxLen)
}

// roundRobinSelect takes up to perTypeQuota items from each of the four
// categories, in category order (entity, document, graph, other) so the
// render step can lay sections out in a stable order.
func roundRobinSelect(buckets map[category][]model.RetrievalResult, perTypeQuota int) (map[category][]model.RetrievalResult, map[string]bool) {
	order := []category{categoryEntity, categoryDocument, categoryGraph, categoryOther}
	selected := map[category][]model.RetrievalResult{}
	seen := map[string]bool{}

	for _, c := range order {
		items := buckets[c]
		n := perTypeQuota
		if n > len(items) {
			n = len(items)
		}
		selected[c] = append(selected[c], items[:n]...)
		for _, r := range items[:n] {
			seen[resultKey(r)] = true
		}
	}
	return selected, seen
}

// fillRemainder fills any unused slots (below topK total) by pure score
// order from the pool not already selected.
func fillRemainder(selected map[category][]model.RetrievalResult, seen map[string]bool, all []model.RetrievalResult, topK int) map[category][]model.RetrievalResult {
	total := 0
	for _, items := range selected {
		total += len(items)
	}
	if total >= topK {
		return selected
	}

	for _, r := range all {
		if total >= topK {
			break
		}
		if seen[resultKey(r)] {
			continue
		}
		c := classify(r)
		selected[c] = append(selected[c], r)
		seen[resultKey(r)] = true
		total++
	}
	return selected
}

func resultKey(r model.RetrievalResult) string {
	if r.ChunkID != "" {
		return string(r.Source) + "\x00" + r.ChunkID
	}
	return string(r.Source) + "\x00" + r.Content
}

func render(selected map[category][]model.RetrievalResult, maxPerItem, maxLen int) string {
	order := []category{categoryEntity, categoryDocument, categoryGraph, categoryOther}
	var b strings.Builder
	for _, c := range order {
		items := selected[c]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", sectionHeaders[c])
		for _, r := range items {
			b.WriteString(truncate(r.Content, maxPerItem))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return truncateOverall(b.String(), maxLen)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + truncationMarker
}

func truncateOverall(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + truncationMarker
}
