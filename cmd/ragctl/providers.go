package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/embedding"
)

// httpEmbeddingProvider is the one concrete embedding.Provider this driver
// wires up. The embedding/LLM HTTP clients themselves are explicitly out of
// core scope (spec.md §1 non-goals) — this is the thin, swappable boundary
// implementation cmd/ragctl owns so the kernel has something real to call.
type httpEmbeddingProvider struct {
	name      string
	endpoint  string
	apiKey    string
	dimension int
	client    *http.Client
}

func newHTTPEmbeddingProvider(endpoint, apiKey string, dimension int) *httpEmbeddingProvider {
	return &httpEmbeddingProvider{
		name:      "http",
		endpoint:  endpoint,
		apiKey:    apiKey,
		dimension: dimension,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *httpEmbeddingProvider) Name() string { return p.name }

func (p *httpEmbeddingProvider) Dimension() int { return p.dimension }

func (p *httpEmbeddingProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *httpEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(map[string]any{"input": texts})
	if err != nil {
		return nil, fmt.Errorf("httpEmbeddingProvider.EmbedBatch: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, embedding.Transient(fmt.Errorf("httpEmbeddingProvider.EmbedBatch: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, embedding.Transient(fmt.Errorf("httpEmbeddingProvider.EmbedBatch: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, embedding.Transient(fmt.Errorf("httpEmbeddingProvider.EmbedBatch: server error %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpEmbeddingProvider.EmbedBatch: status %d", resp.StatusCode)
	}

	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("httpEmbeddingProvider.EmbedBatch: decode response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("httpEmbeddingProvider.EmbedBatch: got %d vectors for %d texts", len(parsed.Embeddings), len(texts))
	}
	return parsed.Embeddings, nil
}

// httpLLMClient is the one concrete llm.Client this driver wires up, for the
// same reason as httpEmbeddingProvider above.
type httpLLMClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func newHTTPLLMClient(endpoint, apiKey, model string) *httpLLMClient {
	return &httpLLMClient{endpoint: endpoint, apiKey: apiKey, model: model, client: &http.Client{Timeout: 120 * time.Second}}
}

func (c *httpLLMClient) Invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{"model": c.model, "prompt": prompt, "stream": false})
	if err != nil {
		return "", fmt.Errorf("httpLLMClient.Invoke: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("httpLLMClient.Invoke: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpLLMClient.Invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("httpLLMClient.Invoke: status %d", resp.StatusCode)
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("httpLLMClient.Invoke: decode response: %w", err)
	}
	return parsed.Response, nil
}
