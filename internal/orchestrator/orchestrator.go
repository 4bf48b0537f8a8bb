// Package orchestrator implements C8: the build/qa/full driver that takes a
// document set through chunking, SPO extraction, graph persistence, vector
// and BM25 indexing, and SPO/stats caching (spec.md §4.10).
package orchestrator

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/bm25"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/chunker"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/graphbuilder"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kernelerr"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// Chunker splits a document under a given strategy config (C2).
type Chunker interface {
	Chunk(ctx context.Context, doc model.Document, cfg chunker.Config) ([]model.Chunk, error)
}

// Extractor runs stage-1 SPO extraction over chunks (C7).
type Extractor interface {
	ExtractTriples(ctx context.Context, chunks []model.Chunk, cfg graphbuilder.Config) ([]graphbuilder.Triple, []string, error)
}

// Embedder turns chunk or entity text into vectors (C1).
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GraphStore persists and, in qa mode, inspects the knowledge graph (C5).
type GraphStore interface {
	StoreGraph(ctx context.Context, kg *model.KnowledgeGraph, clearExisting bool) error
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

// VectorStore is one named vector collection (C3): document-chunk or
// graph-embedding. Recreate-on-build is the caller's concern at construction
// time — one handle per collection per process, per spec.md §9(b).
type VectorStore interface {
	Add(ctx context.Context, records []model.VectorRecord) error
	Status(ctx context.Context) (int, error)
}

// BM25Store is the lexical index (C4).
type BM25Store interface {
	AddDocuments(docs []model.BM25Document) error
	Status() (docCount, tokenCount int)
}

// KVStore persists the SPO index and graph stats (C6).
type KVStore interface {
	SaveSPOIndex(ctx context.Context, idx *model.SPOIndex) error
	LoadSPOIndex(ctx context.Context) (*model.SPOIndex, bool, error)
	SaveGraphStats(ctx context.Context, stats model.GraphStats) error
	LoadGraphStats(ctx context.Context) (model.GraphStats, bool, error)
}

// Orchestrator drives the build/qa/full sequence over one corpus. It holds
// only handles to the long-lived stores; it owns the KnowledgeGraph only for
// the duration of one build.
type Orchestrator struct {
	chunker      Chunker
	extractor    Extractor
	embedder     Embedder
	graphStore   GraphStore
	docVectors   VectorStore
	graphVectors VectorStore
	bm25Index    BM25Store
	kv           KVStore
}

// New wires one Orchestrator from the eight collaborators its build/qa steps use.
func New(chunker Chunker, extractor Extractor, embedder Embedder, graphStore GraphStore, docVectors, graphVectors VectorStore, bm25Index BM25Store, kv KVStore) *Orchestrator {
	return &Orchestrator{
		chunker:      chunker,
		extractor:    extractor,
		embedder:     embedder,
		graphStore:   graphStore,
		docVectors:   docVectors,
		graphVectors: graphVectors,
		bm25Index:    bm25Index,
		kv:           kv,
	}
}

// Build runs one of the three modes over docs. build runs the ten-step
// construction sequence; qa validates existing indexes only; full runs
// build then qa and reports on both.
func (o *Orchestrator) Build(ctx context.Context, docs []model.Document, mode model.BuildMode, cfg Config) (model.BuildReport, error) {
	switch mode {
	case model.ModeQA:
		return o.runQA(ctx)
	case model.ModeFull:
		report, err := o.runBuild(ctx, docs, cfg)
		if err != nil {
			return report, err
		}
		qaReport, err := o.runQA(ctx)
		report.Steps = append(report.Steps, qaReport.Steps...)
		report.Finished = qaReport.Finished
		return report, err
	case model.ModeBuild, "":
		return o.runBuild(ctx, docs, cfg)
	default:
		return model.BuildReport{}, kernelerr.New(kernelerr.KindConfigInvalid, "orchestrator.Build: unknown mode %q", mode)
	}
}

// runBuild executes the strict ten-step sequence from spec.md §4.10: each
// step logs and records its own failure; later steps still run wherever
// they have the inputs to run on (e.g. the SPO index can be built even if
// vector indexing failed).
func (o *Orchestrator) runBuild(ctx context.Context, docs []model.Document, cfg Config) (model.BuildReport, error) {
	report := model.BuildReport{Mode: model.ModeBuild, StartedAt: time.Now()}

	var graphChunks []model.Chunk
	step(ctx, &report, "chunker_graph_pass", func() error {
		chunks, err := o.chunkAll(ctx, docs, cfg.GraphChunking, "graph")
		graphChunks = chunks
		return err
	})

	var kg *model.KnowledgeGraph
	step(ctx, &report, "extract_relations", func() error {
		if len(graphChunks) == 0 {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: no graph chunks to extract from")
		}
		triples, failedIDs, err := o.extractor.ExtractTriples(ctx, graphChunks, cfg.Extraction)
		if err != nil {
			return err
		}
		if len(failedIDs) > 0 {
			slog.Warn("orchestrator: some chunks failed SPO extraction", "chunk_ids", failedIDs)
		}
		g, err := graphbuilder.Canonicalize(triples)
		if err != nil {
			return err
		}
		kg = g
		return nil
	})

	step(ctx, &report, "persist_graph", func() error {
		if kg == nil {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: no knowledge graph to persist")
		}
		return o.graphStore.StoreGraph(ctx, kg, true)
	})

	var vectorChunks []model.Chunk
	step(ctx, &report, "chunk_document_vectors", func() error {
		chunks, err := o.chunkAll(ctx, docs, cfg.VectorChunking, "vector")
		vectorChunks = chunks
		return err
	})

	step(ctx, &report, "index_document_vectors", func() error {
		if len(vectorChunks) == 0 {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: no chunks to embed")
		}
		return o.embedAndStore(ctx, o.docVectors, vectorChunks)
	})

	step(ctx, &report, "index_graph_embeddings", func() error {
		if kg == nil || len(kg.Entities) == 0 {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: no entities to embed")
		}
		return o.embedEntities(ctx, kg)
	})

	var bm25Chunks []model.Chunk
	step(ctx, &report, "chunk_bm25", func() error {
		chunks, err := o.chunkAll(ctx, docs, cfg.BM25Chunking, "bm25")
		bm25Chunks = chunks
		return err
	})

	step(ctx, &report, "index_bm25", func() error {
		if len(bm25Chunks) == 0 {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: no chunks to index")
		}
		return o.bm25Index.AddDocuments(toBM25Documents(bm25Chunks))
	})

	step(ctx, &report, "serialize_spo_index", func() error {
		if kg == nil {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: no knowledge graph to index")
		}
		return o.kv.SaveSPOIndex(ctx, buildSPOIndex(kg))
	})

	step(ctx, &report, "cache_graph_stats", func() error {
		if kg == nil {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: no knowledge graph to summarize")
		}
		return o.kv.SaveGraphStats(ctx, graphStats(kg))
	})

	report.Finished = time.Now()
	return report, nil
}

// runQA validates that every index already holds something, without
// rebuilding anything.
func (o *Orchestrator) runQA(ctx context.Context) (model.BuildReport, error) {
	report := model.BuildReport{Mode: model.ModeQA, StartedAt: time.Now()}

	step(ctx, &report, "validate_document_vectors", func() error {
		return requireNonZero(o.docVectors.Status(ctx))
	})
	step(ctx, &report, "validate_graph_embeddings", func() error {
		return requireNonZero(o.graphVectors.Status(ctx))
	})
	step(ctx, &report, "validate_bm25_index", func() error {
		docCount, _ := o.bm25Index.Status()
		if docCount == 0 {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: bm25 index is empty")
		}
		return nil
	})
	step(ctx, &report, "validate_graph_store", func() error {
		rows, err := o.graphStore.ExecuteQuery(ctx, "MATCH (n) RETURN count(n) AS c", nil)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: graph store query returned no rows")
		}
		return nil
	})
	step(ctx, &report, "validate_spo_index", func() error {
		_, ok, err := o.kv.LoadSPOIndex(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: spo_index not found in kv store")
		}
		return nil
	})
	step(ctx, &report, "validate_graph_stats", func() error {
		_, ok, err := o.kv.LoadGraphStats(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return kernelerr.New(kernelerr.KindEmpty, "orchestrator: graph_stats not found in kv store")
		}
		return nil
	})

	report.Finished = time.Now()
	return report, nil
}

func requireNonZero(count int, err error) error {
	if err != nil {
		return err
	}
	if count == 0 {
		return kernelerr.New(kernelerr.KindEmpty, "orchestrator: collection is empty")
	}
	return nil
}

// chunkAll runs one of the three independent per-document chunking passes.
// collection namespaces the resulting Chunk IDs (chunker.Config.Collection)
// so the graph/vector/bm25 passes over the same documents never mint the
// same ID twice.
func (o *Orchestrator) chunkAll(ctx context.Context, docs []model.Document, cfg chunker.Config, collection string) ([]model.Chunk, error) {
	cfg.Collection = collection
	var all []model.Chunk
	for _, doc := range docs {
		chunks, err := o.chunker.Chunk(ctx, doc, cfg)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

func (o *Orchestrator) embedAndStore(ctx context.Context, store VectorStore, chunks []model.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	records := make([]model.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = model.VectorRecord{
			ID:     c.ID,
			Vector: vectors[i],
			Payload: model.VectorPayload{
				Content: c.Content,
				Metadata: map[string]string{
					"document_id": c.Metadata.ParentID,
					"chunk_index": strconv.Itoa(c.Metadata.ChunkIndex),
				},
			},
		}
	}
	return store.Add(ctx, records)
}

func (o *Orchestrator) embedEntities(ctx context.Context, kg *model.KnowledgeGraph) error {
	ids := make([]string, 0, len(kg.Entities))
	texts := make([]string, 0, len(kg.Entities))
	for id, e := range kg.Entities {
		ids = append(ids, id)
		texts = append(texts, e.Name+": "+e.Description)
	}
	vectors, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	records := make([]model.VectorRecord, len(ids))
	for i, id := range ids {
		records[i] = model.VectorRecord{
			ID:     id,
			Vector: vectors[i],
			Payload: model.VectorPayload{
				Content:  texts[i],
				Metadata: map[string]string{"entity_type": kg.Entities[id].EntityType},
			},
		}
	}
	return o.graphVectors.Add(ctx, records)
}

func toBM25Documents(chunks []model.Chunk) []model.BM25Document {
	docs := make([]model.BM25Document, len(chunks))
	for i, c := range chunks {
		tokens := bm25.Tokenize(c.Content)
		docs[i] = model.BM25Document{
			ID:               c.ID,
			RawContent:       c.Content,
			TokenizedContent: tokens,
			DocLength:        len(tokens),
			Metadata:         map[string]string{"document_id": c.Metadata.ParentID},
		}
	}
	return docs
}

func buildSPOIndex(kg *model.KnowledgeGraph) *model.SPOIndex {
	idx := model.NewSPOIndex()
	for _, r := range kg.Relationships {
		idx.Add(entityName(kg, r.SourceEntityID), r.RelationType, entityName(kg, r.TargetEntityID), r.ID)
	}
	return idx
}

func entityName(kg *model.KnowledgeGraph, id string) string {
	if e, ok := kg.Entities[id]; ok {
		return e.Name
	}
	return id
}

func graphStats(kg *model.KnowledgeGraph) model.GraphStats {
	entityTypes := map[string]int{}
	for _, e := range kg.Entities {
		entityTypes[e.EntityType]++
	}
	relTypes := map[string]int{}
	for _, r := range kg.Relationships {
		relTypes[r.RelationType]++
	}
	return model.GraphStats{
		EntityCount:       len(kg.Entities),
		RelationshipCount: len(kg.Relationships),
		EntityTypes:       entityTypes,
		RelationshipTypes: relTypes,
		BuildTime:         time.Now().UTC().Format(time.RFC3339),
	}
}

// step runs one named build/qa step, honoring cancellation between steps
// (not mid-step) and recording its outcome on report regardless of outcome.
func step(ctx context.Context, report *model.BuildReport, name string, fn func() error) {
	if err := ctx.Err(); err != nil {
		report.Steps = append(report.Steps, model.BuildStepReport{Name: name, Status: model.StepSkipped, Error: err.Error()})
		return
	}
	start := time.Now()
	err := fn()
	status := model.StepOK
	errMsg := ""
	if err != nil {
		status = model.StepFailed
		errMsg = err.Error()
		slog.Error("orchestrator: build step failed", "step", name, "error", err)
	}
	report.Steps = append(report.Steps, model.BuildStepReport{
		Name:     name,
		Status:   status,
		Error:    errMsg,
		Duration: time.Since(start),
	})
}
