// Package graphbuilder implements C7: two-stage SPO (subject-predicate-
// object) extraction over chunks via an LLM, followed by canonicalization
// into a model.KnowledgeGraph.
package graphbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/llm"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/retry"
)

// Triple is one raw (subject, predicate, object) extraction, before
// canonicalization resolves surface forms to canonical entity ids.
type Triple struct {
	Subject       string  `json:"subject"`
	Predicate     string  `json:"predicate"`
	Object        string  `json:"object"`
	SubjectType   string  `json:"subject_type"`
	ObjectType    string  `json:"object_type"`
	Confidence    float64 `json:"confidence"`
	SourceChunkID string  `json:"-"`
}

// Config parameterizes one extraction run.
type Config struct {
	SPOBatchSize int
	MaxRetries   int
}

const defaultSPOBatchSize = 5

// Builder extracts and canonicalizes a knowledge graph from chunks.
type Builder struct {
	llmClient llm.Client
}

// New builds a Builder over an LLM client.
func New(llmClient llm.Client) *Builder {
	return &Builder{llmClient: llmClient}
}

// ExtractTriples runs stage 1: per-batch SPO extraction, batched and
// retried per cfg, with partial-batch failure logged and skipped rather
// than aborting the build (spec.md §4.5).
func (b *Builder) ExtractTriples(ctx context.Context, chunks []model.Chunk, cfg Config) ([]Triple, []string, error) {
	batchSize := cfg.SPOBatchSize
	if batchSize <= 0 {
		batchSize = defaultSPOBatchSize
	}
	batches := chunkBatches(chunks, batchSize)

	type outcome struct {
		triples   []Triple
		failedIDs []string
	}
	outcomes := make([]outcome, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			triples, err := b.extractBatch(gctx, batch, cfg.MaxRetries)
			if err != nil {
				ids := make([]string, len(batch))
				for j, c := range batch {
					ids[j] = c.ID
				}
				slog.Warn("graphbuilder: batch extraction failed after retries, skipping", "chunk_ids", ids, "error", err)
				outcomes[i] = outcome{failedIDs: ids}
				return nil
			}
			outcomes[i] = outcome{triples: triples}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("graphbuilder.ExtractTriples: %w", err)
	}

	var allTriples []Triple
	var failedChunkIDs []string
	for _, o := range outcomes {
		allTriples = append(allTriples, o.triples...)
		failedChunkIDs = append(failedChunkIDs, o.failedIDs...)
	}
	return allTriples, failedChunkIDs, nil
}

func chunkBatches(chunks []model.Chunk, size int) [][]model.Chunk {
	var batches [][]model.Chunk
	for i := 0; i < len(chunks); i += size {
		end := i + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[i:end])
	}
	return batches
}

// extractBatch issues one LLM call covering every chunk in batch, retrying
// the whole batch on parse failure or LLM failure up to maxRetries times.
func (b *Builder) extractBatch(ctx context.Context, batch []model.Chunk, maxRetries int) ([]Triple, error) {
	cfg := retry.WithMaxRetries(maxRetries)
	return retry.Do(ctx, cfg, "graphbuilder.extractBatch", isRetryableExtraction, func() ([]Triple, error) {
		raw, err := b.llmClient.Invoke(ctx, buildExtractionPrompt(batch))
		if err != nil {
			return nil, kernelerr.Wrap(kernelerr.KindLLMFailed, err)
		}

		var rawTriples []struct {
			ChunkID     string  `json:"chunk_id"`
			Subject     string  `json:"subject"`
			Predicate   string  `json:"predicate"`
			Object      string  `json:"object"`
			SubjectType string  `json:"subject_type"`
			ObjectType  string  `json:"object_type"`
			Confidence  float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &rawTriples); err != nil {
			return nil, kernelerr.Wrap(kernelerr.KindLLMParseFailed, fmt.Errorf("graphbuilder.extractBatch: %w", err))
		}

		triples := make([]Triple, 0, len(rawTriples))
		for _, rt := range rawTriples {
			if rt.Subject == "" || rt.Object == "" {
				continue
			}
			triples = append(triples, Triple{
				Subject:       rt.Subject,
				Predicate:     rt.Predicate,
				Object:        rt.Object,
				SubjectType:   rt.SubjectType,
				ObjectType:    rt.ObjectType,
				Confidence:    rt.Confidence,
				SourceChunkID: rt.ChunkID,
			})
		}
		return triples, nil
	})
}

func isRetryableExtraction(err error) bool {
	kind := kernelerr.KindOf(err)
	return kind == kernelerr.KindLLMParseFailed || kind == kernelerr.KindLLMFailed
}
