package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/metrics"
	kernelmiddleware "github.com/DemonDamon/AgenticX-GraphRAG/internal/middleware"
)

// Version is reported by /healthz.
const Version = "0.1.0"

func newRouter(s *server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(kernelmiddleware.Logging)
	r.Use(metrics.Monitoring(s.k.metrics))

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", metrics.Handler(s.k.registry))
	r.Post("/build", s.build)
	r.Post("/retrieve", s.retrieve)

	return r
}

func run() error {
	cfg, err := Load()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// recreate=false: table/collection creation happens once here at process
	// start, never on a per-request basis. A build-time recreate of the
	// document-chunk and graph-embedding collections (spec.md §4.10) is an
	// explicit operator action, not an implicit side effect of serving /build.
	k, err := buildKernel(startCtx, cfg, false)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	s := newServer(k, cfg)
	router := newRouter(s)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("ragctl v%s starting on port %s", Version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down gracefully", sig)
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	k.Close(shutdownCtx)

	log.Println("ragctl stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
