package chunker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/llm"
)

const cutPointPrompt = `You split a document into coherent chunks for a retrieval index.
Read the document below and return a JSON array of character offsets (ascending
integers, 0 < offset < document length) marking the best cut points. Return
only the JSON array, nothing else.

DOCUMENT:
%s`

// agenticSplit asks the LLM for cut points and falls back to the fixed-size
// strategy on any failure — an LLM outage must never abort a build
// (spec.md §4.1).
func (c *Chunker) agenticSplit(ctx context.Context, content string, cfg Config) ([]string, error) {
	if c.llmClient == nil {
		return fixedSizeSplit(content, cfg), nil
	}

	raw, err := c.llmClient.Invoke(ctx, fmt.Sprintf(cutPointPrompt, content))
	if err != nil {
		slog.Warn("chunker: agentic cut-point call failed, falling back to fixed_size", "error", err)
		return fixedSizeSplit(content, cfg), nil
	}

	var offsets []int
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &offsets); err != nil {
		slog.Warn("chunker: agentic response unparseable, falling back to fixed_size", "error", err)
		return fixedSizeSplit(content, cfg), nil
	}

	texts := splitAtOffsets(content, offsets)
	if len(texts) == 0 {
		return fixedSizeSplit(content, cfg), nil
	}
	return texts, nil
}

// splitAtOffsets cuts content at each valid, ascending offset.
func splitAtOffsets(content string, offsets []int) []string {
	n := len(content)
	var cuts []int
	last := -1
	for _, o := range offsets {
		if o <= last || o <= 0 || o >= n {
			continue
		}
		cuts = append(cuts, o)
		last = o
	}
	if len(cuts) == 0 {
		return nil
	}

	var parts []string
	prev := 0
	for _, o := range cuts {
		parts = append(parts, strings.TrimSpace(content[prev:o]))
		prev = o
	}
	parts = append(parts, strings.TrimSpace(content[prev:]))
	return parts
}
