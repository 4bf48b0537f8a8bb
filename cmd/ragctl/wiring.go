package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/bm25"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/chunker"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/embedding"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/fallback"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/graphbuilder"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/graphstore"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/kvstore"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/metrics"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/orchestrator"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/queryanalyzer"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/retriever"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/vectorindex"
	prom "github.com/prometheus/client_golang/prometheus"
)

// kernel holds every long-lived collaborator cmd/ragctl wires together, plus
// everything that needs an orderly Close on shutdown.
type kernel struct {
	pool         *pgxpool.Pool
	graphStore   *graphstore.Store
	kv           *kvstore.Store
	analyzer     *queryanalyzer.Analyzer
	orchestrator *orchestrator.Orchestrator
	fallback     *fallback.Controller
	metrics      *metrics.Metrics
	registry     *prom.Registry
}

// buildKernel constructs the full dependency graph described by cfg. recreate
// controls whether the two vector collections are dropped and recreated,
// matching spec.md §4.10's "recreate_if_exists=true" build-time requirement.
// run passes false, so /build appends to the collections already open.
func buildKernel(ctx context.Context, cfg *AppConfig, recreate bool) (*kernel, error) {
	pool, err := vectorindex.NewPool(ctx, cfg.PostgresDSN, 10)
	if err != nil {
		return nil, fmt.Errorf("buildKernel: %w", err)
	}

	docVectors, err := vectorindex.NewStore(ctx, pool, vectorindex.Options{
		Collection:       model.CollectionDocumentChunk,
		Dimension:        cfg.EmbeddingDimension,
		RecreateIfExists: recreate,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("buildKernel: document-chunk collection: %w", err)
	}

	graphVectors, err := vectorindex.NewStore(ctx, pool, vectorindex.Options{
		Collection:       model.CollectionGraphEmbedding,
		Dimension:        cfg.EmbeddingDimension,
		RecreateIfExists: recreate,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("buildKernel: graph-embedding collection: %w", err)
	}

	graphStore, err := graphstore.NewStore(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("buildKernel: graph store: %w", err)
	}

	kv, err := kvstore.NewStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		pool.Close()
		graphStore.Close(ctx)
		return nil, fmt.Errorf("buildKernel: kv store: %w", err)
	}

	bm25Index := bm25.NewWithParams(cfg.BM25K1, cfg.BM25B)

	embedProvider := newHTTPEmbeddingProvider(cfg.EmbeddingEndpoint, cfg.EmbeddingAPIKey, cfg.EmbeddingDimension)
	router, err := embedding.NewRouter([]embedding.Provider{embedProvider})
	if err != nil {
		pool.Close()
		graphStore.Close(ctx)
		kv.Close()
		return nil, fmt.Errorf("buildKernel: embedding router: %w", err)
	}

	llmClient := newHTTPLLMClient(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel)

	chunk := chunker.New(router, llmClient)
	builder := graphbuilder.New(llmClient)
	analyzer := queryanalyzer.New()

	hybrid := retriever.New(router, docVectors, bm25Index, graphStore, cfg.HybridWeights)
	fallbackCtrl := fallback.New(analyzer, hybrid, graphStore)

	orch := orchestrator.New(
		chunk,
		builder,
		router,
		graphStore,
		docVectors,
		graphVectors,
		bm25Index,
		kv,
	)

	reg := prom.NewRegistry()
	m := metrics.New(reg)

	return &kernel{
		pool:         pool,
		graphStore:   graphStore,
		kv:           kv,
		analyzer:     analyzer,
		orchestrator: orch,
		fallback:     fallbackCtrl,
		metrics:      m,
		registry:     reg,
	}, nil
}

// Close releases every long-lived collaborator in reverse acquisition order.
func (k *kernel) Close(ctx context.Context) {
	k.analyzer.Close()
	k.kv.Close()
	k.graphStore.Close(ctx)
	k.pool.Close()
}

// orchestratorConfig builds the per-run orchestrator.Config from cfg's three
// independent chunking configs and extraction settings (spec.md §6).
func orchestratorConfig(cfg *AppConfig) orchestrator.Config {
	return orchestrator.Config{
		GraphChunking:  cfg.GraphChunking,
		VectorChunking: cfg.VectorChunking,
		BM25Chunking:   cfg.BM25Chunking,
		Extraction:     cfg.Extraction,
	}
}
