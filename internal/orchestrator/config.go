package orchestrator

import (
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/chunker"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/graphbuilder"
)

// Config parameterizes one Build/QA run (spec.md §6 config table): three
// independent chunking configs — one per consumer — plus the extraction
// batch/retry settings.
type Config struct {
	GraphChunking  chunker.Config
	VectorChunking chunker.Config
	BM25Chunking   chunker.Config
	Extraction     graphbuilder.Config
}
