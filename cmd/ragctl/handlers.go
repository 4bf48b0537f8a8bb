package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	kernelcontext "github.com/DemonDamon/AgenticX-GraphRAG/internal/context"
	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

type server struct {
	k   *kernel
	cfg *AppConfig
}

func newServer(k *kernel, cfg *AppConfig) *server {
	return &server{k: k, cfg: cfg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": "0.1.0"})
}

type buildDocument struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Name        string `json:"name"`
	SourceURI   string `json:"source_uri"`
	ContentType string `json:"content_type"`
}

type buildRequest struct {
	Documents []buildDocument `json:"documents"`
	Mode      string          `json:"mode"`
}

// build handles POST /build: runs the orchestrator over the request's
// documents and returns the resulting per-step report (spec.md §4.10).
func (s *server) build(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, errEmptyDocuments)
		return
	}

	docs := make([]model.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = model.Document{
			ID:      d.ID,
			Content: d.Content,
			Metadata: model.DocumentMetadata{
				Name:        d.Name,
				SourceURI:   d.SourceURI,
				ContentType: d.ContentType,
				ChunkIndex:  -1,
			},
		}
	}

	report, err := s.k.orchestrator.Build(r.Context(), docs, model.BuildMode(req.Mode), orchestratorConfig(s.cfg))
	for _, step := range report.Steps {
		s.k.metrics.ObserveBuildStep(step.Name, string(step.Status), step.Duration)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	status := http.StatusOK
	if !report.Success() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, report)
}

type retrieveRequest struct {
	Query string `json:"query"`
}

type retrieveResponse struct {
	Context string                  `json:"context"`
	Report  model.RetrievalReport   `json:"report"`
	Results []model.RetrievalResult `json:"results"`
}

// retrieve handles POST /retrieve: runs the fallback ladder then assembles
// the surviving results into a single bounded context string (C11, C12).
func (s *server) retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errEmptyQuery)
		return
	}

	start := time.Now()
	results, report, err := s.k.fallback.Retrieve(r.Context(), req.Query)
	s.k.metrics.ObserveRetrieval(report.StrategyUsed, report.Success, time.Since(start))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	assembled := kernelcontext.Assemble(results, kernelcontext.Config{
		TopK:              s.cfg.AssemblerTopK,
		MaxContentPerItem: s.cfg.MaxContentPerItem,
		MaxContextLength:  s.cfg.MaxContextLength,
	})

	writeJSON(w, http.StatusOK, retrieveResponse{Context: assembled, Report: report, Results: results})
}

var (
	errEmptyDocuments = errors.New("build: documents must not be empty")
	errEmptyQuery     = errors.New("retrieve: query must not be empty")
)
