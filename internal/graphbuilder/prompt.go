package graphbuilder

import (
	"strings"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

const extractionPreamble = `Extract (subject, predicate, object) triples from the document chunks below.
For each triple, also provide a subject_type, an object_type, and a
confidence between 0 and 1. Return strict JSON: an array of objects with keys
chunk_id, subject, predicate, object, subject_type, object_type, confidence.
Return only the JSON array, nothing else.

CHUNKS:
`

func buildExtractionPrompt(batch []model.Chunk) string {
	var b strings.Builder
	b.WriteString(extractionPreamble)
	for _, c := range batch {
		b.WriteString("---\nchunk_id: ")
		b.WriteString(c.ID)
		b.WriteString("\n")
		b.WriteString(c.Content)
		b.WriteString("\n")
	}
	return b.String()
}
