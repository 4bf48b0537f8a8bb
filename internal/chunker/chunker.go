// Package chunker implements C2: splitting a Document into overlapping
// Chunks under one of three strategies (fixed_size, semantic, agentic).
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/embedding"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/llm"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// Strategy selects how a Document is split (spec.md §4.1).
type Strategy string

const (
	StrategyFixedSize Strategy = "fixed_size"
	StrategySemantic  Strategy = "semantic"
	StrategyAgentic   Strategy = "agentic"
)

// Config parameterizes one chunking run. The chunker is invoked up to three
// times per build (graph/vector/bm25 configs) — each run is independent and
// the resulting Chunk IDs live in disjoint id-spaces (spec.md §4.1), kept
// disjoint by namespacing IDs with Collection: without it, two runs over the
// same document both start their per-chunk counter at 0 and mint identical
// IDs, which collide and wrongly dedup together downstream (e.g.
// internal/fallback's ChunkID-keyed dedup pass).
type Config struct {
	Strategy            Strategy
	ChunkSize           int
	ChunkOverlap        int
	MinChunkSize        int
	MaxChunkSize        int
	SimilarityThreshold float64 // semantic strategy only; default 0.6
	Collection          string  // e.g. "graph", "vector", "bm25" — namespaces Chunk IDs
}

// Chunker splits documents per Config. Embedder is required for the semantic
// strategy; LLMClient is required for the agentic strategy. Both may be nil
// if the caller never selects those strategies.
type Chunker struct {
	embedder  embedding.Provider
	llmClient llm.Client
}

// New builds a Chunker. Either dependency may be nil if its strategy is unused.
func New(embedder embedding.Provider, llmClient llm.Client) *Chunker {
	return &Chunker{embedder: embedder, llmClient: llmClient}
}

// Chunk splits doc into an ordered sequence of Chunks per cfg.
func (c *Chunker) Chunk(ctx context.Context, doc model.Document, cfg Config) ([]model.Chunk, error) {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil, kernelerr.New(kernelerr.KindValidation, "chunker.Chunk: document %q has empty content", doc.ID)
	}
	if cfg.ChunkSize <= 0 {
		return nil, kernelerr.New(kernelerr.KindConfigInvalid, "chunker.Chunk: chunk_size must be positive")
	}

	var texts []string
	var err error

	switch cfg.Strategy {
	case StrategySemantic:
		texts, err = c.semanticSplit(ctx, content, cfg)
	case StrategyAgentic:
		texts, err = c.agenticSplit(ctx, content, cfg)
	case StrategyFixedSize, "":
		texts = fixedSizeSplit(content, cfg)
	default:
		return nil, kernelerr.New(kernelerr.KindConfigInvalid, "chunker.Chunk: unknown strategy %q", cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}

	return toChunks(doc, texts, cfg.Collection), nil
}

func toChunks(doc model.Document, texts []string, collection string) []model.Chunk {
	if collection == "" {
		collection = "default"
	}
	chunks := make([]model.Chunk, 0, len(texts))
	idx := 0
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		chunks = append(chunks, model.Chunk{
			ID:      doc.ID + "#" + collection + "#chunk" + strconv.Itoa(idx),
			Content: t,
			Metadata: model.DocumentMetadata{
				Name:        doc.Metadata.Name,
				SourceURI:   doc.Metadata.SourceURI,
				ContentType: doc.Metadata.ContentType,
				ParentID:    doc.ID,
				ChunkIndex:  idx,
			},
		})
		idx++
	}
	return chunks
}

// fixedSizeSplit slides a chunkSize-byte window with chunkOverlap-byte
// overlap over content, snapping every cut to a UTF-8 rune boundary. The
// last chunk may be shorter than minChunkSize only if it is the only chunk.
func fixedSizeSplit(content string, cfg Config) []string {
	b := []byte(content)
	n := len(b)
	if n <= cfg.ChunkSize {
		return []string{content}
	}

	overlap := cfg.ChunkOverlap
	if overlap < 0 || overlap >= cfg.ChunkSize {
		overlap = 0
	}

	var windows []string
	start := 0
	for start < n {
		end := start + cfg.ChunkSize
		if end > n {
			end = n
		} else {
			end = runeBoundary(b, end)
		}
		windows = append(windows, string(b[start:end]))
		if end >= n {
			break
		}
		next := runeBoundary(b, end-overlap)
		if next <= start {
			next = end
		}
		start = next
	}

	return mergeShortTail(windows, cfg.MinChunkSize)
}

// mergeShortTail folds a final window shorter than minChunkSize into its
// predecessor, unless it is the only window.
func mergeShortTail(windows []string, minChunkSize int) []string {
	if len(windows) <= 1 || minChunkSize <= 0 {
		return windows
	}
	last := windows[len(windows)-1]
	if len(last) < minChunkSize {
		windows[len(windows)-2] = windows[len(windows)-2] + last
		windows = windows[:len(windows)-1]
	}
	return windows
}

// runeBoundary walks idx backward until it lands on a UTF-8 rune start, so a
// byte window never splits a multi-byte character.
func runeBoundary(b []byte, idx int) int {
	if idx >= len(b) {
		return len(b)
	}
	if idx <= 0 {
		return 0
	}
	for idx > 0 && !utf8.RuneStart(b[idx]) {
		idx--
	}
	return idx
}
