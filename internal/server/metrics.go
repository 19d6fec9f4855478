// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values shared across registrations.
const (
	// labelHandler is the "handler" label value used to partition metrics by
	// the logical endpoint name rather than the raw URL path.
	labelHandler = "handler"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in newServer and stored on Server so that
// tests can inject a fresh prometheus.Registry without polluting the default
// one.
type serverMetrics struct {
	// newsletterRunsTotal counts completed /api/newsletter runs, partitioned
	// by outcome: "ok", "empty" (no articles found), or "error".
	newsletterRunsTotal *prometheus.CounterVec

	// newsletterDurationSeconds records the wall-clock duration of each
	// newsletter run from request receipt to result.
	newsletterDurationSeconds *prometheus.HistogramVec

	// newsletterArticlesUsed records how many articles grounded each
	// successful newsletter.
	newsletterArticlesUsed prometheus.Histogram

	// ingestRunsTotal counts /api/ingest runs, partitioned by outcome.
	ingestRunsTotal *prometheus.CounterVec

	// ingestArticlesTotal counts articles seen by ingestion, partitioned by
	// disposition: "new" or "duplicate".
	ingestArticlesTotal *prometheus.CounterVec

	// indexBatchesTotal counts batch indexing runs, partitioned by outcome.
	indexBatchesTotal *prometheus.CounterVec

	// indexArticlesTotal counts per-article indexing outcomes, partitioned
	// by disposition: "indexed" or "failed".
	indexArticlesTotal *prometheus.CounterVec

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, handler, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		newsletterRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "newsletter",
			Name:      "runs_total",
			Help:      "Total number of newsletter runs completed, partitioned by outcome.",
		}, []string{"outcome"}),

		newsletterDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "newsbrief",
			Subsystem: "newsletter",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of newsletter runs from receipt to result.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),

		newsletterArticlesUsed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "newsbrief",
			Subsystem: "newsletter",
			Name:      "articles_used",
			Help:      "Number of articles grounding each successful newsletter.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),

		ingestRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total number of ingestion runs, partitioned by outcome.",
		}, []string{"outcome"}),

		ingestArticlesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "ingest",
			Name:      "articles_total",
			Help:      "Articles seen by ingestion, partitioned by disposition.",
		}, []string{"disposition"}),

		indexBatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "index",
			Name:      "batches_total",
			Help:      "Batch indexing runs, partitioned by outcome.",
		}, []string{"outcome"}),

		indexArticlesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "index",
			Name:      "articles_total",
			Help:      "Per-article indexing outcomes, partitioned by disposition.",
		}, []string{"disposition"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsbrief",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "newsbrief",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}

// instrument wraps next with per-request counters and latency observation,
// labelled with the logical handler name rather than the raw URL path.
func (s *Server) instrument(handler string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, handler, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, handler).Observe(elapsed.Seconds())
	})
}
