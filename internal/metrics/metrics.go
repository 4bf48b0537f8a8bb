// Package metrics holds the Prometheus collectors exposed by cmd/ragctl:
// HTTP request metrics for the thin driver, plus kernel-level build and
// retrieval metrics the teacher's HTTP-only monitoring middleware never had
// a home for.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector registered by ragctl.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	ActiveRequests  prometheus.Gauge

	BuildStepDuration   *prometheus.HistogramVec
	BuildStepFailures   *prometheus.CounterVec
	RetrievalStrategy   *prometheus.CounterVec
	RetrievalDuration   prometheus.Histogram
	RetrievalEmptyTotal prometheus.Counter
}

// New creates and registers every collector against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragctl_http_requests_total",
				Help: "Total number of HTTP requests by method and path.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragctl_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "path"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragctl_http_errors_total",
				Help: "Total number of HTTP error responses (4xx/5xx).",
			},
			[]string{"method", "path", "status"},
		),
		ActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ragctl_http_active_requests",
				Help: "Number of currently active HTTP requests.",
			},
		),
		BuildStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_build_step_duration_seconds",
				Help:    "Duration of one orchestrator build/qa step.",
				Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 180},
			},
			[]string{"step", "status"},
		),
		BuildStepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_build_step_failures_total",
				Help: "Total number of failed orchestrator build/qa steps.",
			},
			[]string{"step"},
		),
		RetrievalStrategy: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_retrieval_strategy_total",
				Help: "Total number of retrieval calls that settled on a given fallback ladder rung.",
			},
			[]string{"strategy"},
		),
		RetrievalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kernel_retrieval_duration_seconds",
				Help:    "End-to-end latency of one Controller.Retrieve call.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		RetrievalEmptyTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_retrieval_empty_total",
				Help: "Total number of retrieval calls that exhausted the fallback ladder and the escape hatch.",
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal, m.RequestDuration, m.ErrorsTotal, m.ActiveRequests,
		m.BuildStepDuration, m.BuildStepFailures,
		m.RetrievalStrategy, m.RetrievalDuration, m.RetrievalEmptyTotal,
	)
	return m
}

// ObserveBuildStep records one orchestrator step's name, status and duration.
func (m *Metrics) ObserveBuildStep(step string, status string, duration time.Duration) {
	m.BuildStepDuration.WithLabelValues(step, status).Observe(duration.Seconds())
	if status == "failed" {
		m.BuildStepFailures.WithLabelValues(step).Inc()
	}
}

// ObserveRetrieval records which ladder rung (or "fallback"/"synthetic_greeting")
// a retrieval call settled on, plus its total latency.
func (m *Metrics) ObserveRetrieval(strategyUsed string, success bool, duration time.Duration) {
	m.RetrievalStrategy.WithLabelValues(strategyUsed).Inc()
	m.RetrievalDuration.Observe(duration.Seconds())
	if !success {
		m.RetrievalEmptyTotal.Inc()
	}
}

// Monitoring returns middleware that records HTTP request metrics.
func Monitoring(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.ActiveRequests.Inc()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(sw.status)
			path := sanitizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
			m.ActiveRequests.Dec()

			if sw.status >= 400 {
				m.ErrorsTotal.WithLabelValues(r.Method, path, status).Inc()
			}
		})
	}
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

// sanitizePath replaces path segments that look like IDs with ":id" so
// per-request labels stay low-cardinality.
func sanitizePath(path string) string {
	if len(path) == 0 {
		return "/"
	}

	var result []byte
	start := 0
	segIdx := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			seg := path[start:i]
			if segIdx > 0 && looksLikeID(seg) {
				result = append(result, ":id"...)
			} else {
				result = append(result, seg...)
			}
			if i < len(path) {
				result = append(result, '/')
			}
			start = i + 1
			segIdx++
		}
	}
	return string(result)
}

func looksLikeID(seg string) bool {
	if len(seg) == 0 {
		return false
	}
	if len(seg) == 36 {
		dashes := 0
		for _, c := range seg {
			if c == '-' {
				dashes++
			}
		}
		if dashes == 4 {
			return true
		}
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
