package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/chunker"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/graphbuilder"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/retriever"
)

// AppConfig holds every value the kernel needs, loaded once from the
// environment and passed by value into the wiring step. No package under
// internal/ reads os.Getenv directly — config.Load (here, not internal/) is
// the only external collaborator allowed to touch the environment.
type AppConfig struct {
	Port string

	PostgresDSN string

	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EmbeddingEndpoint  string
	EmbeddingAPIKey    string
	EmbeddingDimension int

	LLMEndpoint string
	LLMAPIKey   string
	LLMModel    string

	BM25K1 float64
	BM25B  float64

	GraphChunking  chunker.Config
	VectorChunking chunker.Config
	BM25Chunking   chunker.Config
	Extraction     graphbuilder.Config

	HybridWeights retriever.Weights

	AssemblerTopK     int
	MaxContentPerItem int
	MaxContextLength  int
}

// Load reads AppConfig from the environment. POSTGRES_DSN is the only
// required variable — every other storage/embedding/LLM endpoint falls back
// to a local-development default.
func Load() (*AppConfig, error) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("config.Load: POSTGRES_DSN is required")
	}

	cfg := &AppConfig{
		Port: envStr("PORT", "8080"),

		PostgresDSN: dsn,

		Neo4jURI:      envStr("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername: envStr("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: envStr("NEO4J_PASSWORD", ""),

		RedisAddr:     envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		EmbeddingEndpoint:  envStr("EMBEDDING_ENDPOINT", "http://localhost:11434/api/embeddings"),
		EmbeddingAPIKey:    envStr("EMBEDDING_API_KEY", ""),
		EmbeddingDimension: envInt("EMBEDDING_DIMENSION", 768),

		LLMEndpoint: envStr("LLM_ENDPOINT", "http://localhost:11434/api/generate"),
		LLMAPIKey:   envStr("LLM_API_KEY", ""),
		LLMModel:    envStr("LLM_MODEL", ""),

		BM25K1: envFloat("BM25_K1", 1.5),
		BM25B:  envFloat("BM25_B", 0.75),

		GraphChunking: chunker.Config{
			Strategy:     chunker.Strategy(envStr("GRAPH_CHUNK_STRATEGY", string(chunker.StrategyFixedSize))),
			ChunkSize:    envInt("GRAPH_CHUNK_SIZE", 1024),
			ChunkOverlap: envInt("GRAPH_CHUNK_OVERLAP", 100),
			MinChunkSize: envInt("GRAPH_CHUNK_MIN", 50),
			MaxChunkSize: envInt("GRAPH_CHUNK_MAX", 2048),
		},
		VectorChunking: chunker.Config{
			Strategy:     chunker.Strategy(envStr("VECTOR_CHUNK_STRATEGY", string(chunker.StrategyFixedSize))),
			ChunkSize:    envInt("VECTOR_CHUNK_SIZE", 512),
			ChunkOverlap: envInt("VECTOR_CHUNK_OVERLAP", 50),
			MinChunkSize: envInt("VECTOR_CHUNK_MIN", 50),
			MaxChunkSize: envInt("VECTOR_CHUNK_MAX", 1024),
		},
		BM25Chunking: chunker.Config{
			Strategy:     chunker.Strategy(envStr("BM25_CHUNK_STRATEGY", string(chunker.StrategyFixedSize))),
			ChunkSize:    envInt("BM25_CHUNK_SIZE", 512),
			ChunkOverlap: envInt("BM25_CHUNK_OVERLAP", 0),
			MinChunkSize: envInt("BM25_CHUNK_MIN", 20),
			MaxChunkSize: envInt("BM25_CHUNK_MAX", 1024),
		},
		Extraction: graphbuilder.Config{
			SPOBatchSize: envInt("SPO_BATCH_SIZE", 5),
			MaxRetries:   envInt("MAX_RETRIES", 3),
		},

		HybridWeights: retriever.Weights{
			Vector: envFloat("HYBRID_WEIGHT_VECTOR", retriever.DefaultWeights.Vector),
			BM25:   envFloat("HYBRID_WEIGHT_BM25", retriever.DefaultWeights.BM25),
			Graph:  envFloat("HYBRID_WEIGHT_GRAPH", retriever.DefaultWeights.Graph),
		},

		AssemblerTopK:     envInt("ASSEMBLER_TOP_K", 20),
		MaxContentPerItem: envInt("ASSEMBLER_MAX_CONTENT_PER_ITEM", 500),
		MaxContextLength:  envInt("ASSEMBLER_MAX_CONTEXT_LENGTH", 4000),
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
