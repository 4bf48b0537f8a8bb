package chunker

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
)

// sentenceBoundary matches a run of ., !, or ? plus any whitespace after it —
// Unicode-aware via the regexp engine's rune handling, matching the CJK
// full-width forms too.
var sentenceBoundary = regexp.MustCompile(`[.!?。！？]+\s*`)

// semanticSplit groups adjacent sentences while the cosine similarity between
// the running group-mean embedding and the next sentence stays above
// cfg.SimilarityThreshold, respecting min/max chunk size (spec.md §4.1).
func (c *Chunker) semanticSplit(ctx context.Context, content string, cfg Config) ([]string, error) {
	if c.embedder == nil {
		return nil, kernelerr.New(kernelerr.KindConfigInvalid, "chunker: semantic strategy requires an embedding provider")
	}

	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return []string{content}, nil
	}
	if len(sentences) == 1 {
		return sentences, nil
	}

	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.6
	}

	vecs, err := c.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, kernelerr.Wrap(kernelerr.KindEmbeddingFailed, err)
	}

	var groups []string
	var groupSentences []string
	groupMean := append([]float32(nil), vecs[0]...)
	groupSentences = append(groupSentences, sentences[0])

	flush := func() {
		groups = append(groups, strings.Join(groupSentences, " "))
		groupSentences = nil
	}

	for i := 1; i < len(sentences); i++ {
		sent := sentences[i]
		vec := vecs[i]
		sim := cosineSimilarity(groupMean, vec)

		candidate := strings.Join(append(append([]string(nil), groupSentences...), sent), " ")
		withinMax := cfg.MaxChunkSize <= 0 || len(candidate) <= cfg.MaxChunkSize

		if sim >= threshold && withinMax {
			groupSentences = append(groupSentences, sent)
			groupMean = runningMean(groupMean, vec, len(groupSentences))
			continue
		}

		flush()
		groupSentences = append(groupSentences, sent)
		groupMean = append([]float32(nil), vec...)
	}
	if len(groupSentences) > 0 {
		flush()
	}

	return mergeShortTail(groups, cfg.MinChunkSize), nil
}

// splitSentences splits text into trimmed, non-empty sentences, each keeping
// its closing punctuation.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		if p := strings.TrimSpace(text[start:loc[1]]); p != "" {
			sentences = append(sentences, p)
		}
		start = loc[1]
	}
	if p := strings.TrimSpace(text[start:]); p != "" {
		sentences = append(sentences, p)
	}
	return sentences
}

func runningMean(mean []float32, next []float32, countAfter int) []float32 {
	if countAfter <= 1 {
		return append([]float32(nil), next...)
	}
	out := make([]float32, len(mean))
	n := float32(countAfter)
	for i := range mean {
		// mean after adding next = ((n-1)*oldMean + next) / n
		out[i] = ((n-1)*mean[i] + next[i]) / n
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
