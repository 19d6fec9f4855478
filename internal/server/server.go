// Package server implements the HTTP server that exposes the newsbrief
// pipelines via a small JSON API: on-demand newsletter runs, manual
// ingestion, and storage-event driven indexing.
// The server is started by the `newsbrief serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brieflet/newsbrief-go/internal/indexer"
	"github.com/brieflet/newsbrief-go/internal/logging"
	"github.com/brieflet/newsbrief-go/internal/newsletter"
)

// New constructs a Server from the pipeline collaborators and config.
// Metrics are registered against the default Prometheus registry.
func New(runner newsletterRunner, ing ingester, proc batchProcessor, cfg *Config) (*Server, error) {
	return newServer(runner, ing, proc, cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// newServer is the injectable constructor used by tests to supply a fresh
// Prometheus registry per test.
func newServer(runner newsletterRunner, ing ingester, proc batchProcessor, cfg *Config, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("server: newsletter runner must not be nil")
	}
	if ing == nil {
		return nil, fmt.Errorf("server: ingester must not be nil")
	}
	if proc == nil {
		return nil, fmt.Errorf("server: batch processor must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full search-generate-deliver round trip.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		runner:    runner,
		ingester:  ing,
		processor: proc,
		cfg:       cfg,
		log:       log,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("server: NEWSBRIEF_API_KEY not set — API authentication is disabled")
	}

	protect := func(h http.Handler) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/newsletter", protect(s.instrument("newsletter", http.HandlerFunc(s.handleNewsletter))))
	mux.Handle("POST /api/ingest", protect(s.instrument("ingest", http.HandlerFunc(s.handleIngest))))
	mux.Handle("POST /api/events", protect(s.instrument("events", http.HandlerFunc(s.handleEvents))))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		fmt.Printf("newsbrief server listening on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleNewsletter handles POST /api/newsletter. The orchestrator folds all
// business-level failures into the result, so this handler always responds
// 200 with a structured body; only a malformed request body is a 400.
func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletter.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	res := s.runner.Run(r.Context(), req)
	s.metrics.newsletterDurationSeconds.WithLabelValues(newsletterOutcome(res)).Observe(time.Since(start).Seconds())
	s.metrics.newsletterRunsTotal.WithLabelValues(newsletterOutcome(res)).Inc()
	if res.Success {
		s.metrics.newsletterArticlesUsed.Observe(float64(res.ArticlesFound))
	}

	writeJSON(w, http.StatusOK, res)
}

// newsletterOutcome maps a run result to a metric label value.
func newsletterOutcome(res newsletter.Result) string {
	switch {
	case res.Success:
		return "ok"
	case res.Empty:
		return "empty"
	default:
		return "error"
	}
}

// handleIngest handles POST /api/ingest. An empty body is allowed and uses
// the pipeline defaults.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	res, err := s.ingester.Ingest(r.Context(), req.Topic, req.Page, req.PageSize)
	if err != nil {
		logging.FromContext(r.Context()).Error("ingest failed", slog.Any("error", err))
		s.metrics.ingestRunsTotal.WithLabelValues("error").Inc()
		http.Error(w, "ingestion failed", http.StatusBadGateway)
		return
	}

	s.metrics.ingestRunsTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestArticlesTotal.WithLabelValues("new").Add(float64(res.New))
	s.metrics.ingestArticlesTotal.WithLabelValues("duplicate").Add(float64(res.Duplicates))

	writeJSON(w, http.StatusOK, ingestResponse{
		Fetched:    res.Fetched,
		New:        res.New,
		Duplicates: res.Duplicates,
		BatchKey:   res.BatchKey,
	})
}

// handleEvents handles POST /api/events: a storage-event notification with
// one record per written object. Each batch key is processed independently;
// one record's failure must not prevent its siblings from being processed.
// The response is 200 when at least one record succeeded (or all were
// skipped), 502 only when every matching record failed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		http.Error(w, "at least one record is required", http.StatusBadRequest)
		return
	}

	log := logging.FromContext(r.Context())
	resp := eventsResponse{Results: make([]eventResult, 0, len(req.Records))}
	attempted, failed := 0, 0

	for _, rec := range req.Records {
		result := eventResult{Key: rec.Key}
		if !indexer.IsBatchKey(rec.Key) {
			log.Debug("events: skipping non-batch key", slog.String("key", rec.Key))
			resp.Results = append(resp.Results, result)
			continue
		}

		attempted++
		res, err := s.processor.Process(r.Context(), rec.Key)
		if err != nil {
			failed++
			result.Error = err.Error()
			log.Error("events: batch processing failed",
				slog.String("key", rec.Key),
				slog.Any("error", err),
			)
			s.metrics.indexBatchesTotal.WithLabelValues("error").Inc()
		} else {
			result.Processed = true
			result.Indexed = res.Indexed
			s.metrics.indexBatchesTotal.WithLabelValues("ok").Inc()
			s.metrics.indexArticlesTotal.WithLabelValues("indexed").Add(float64(res.Indexed))
			s.metrics.indexArticlesTotal.WithLabelValues("failed").Add(float64(res.Failed))
		}
		resp.Results = append(resp.Results, result)
	}

	status := http.StatusOK
	if attempted > 0 && failed == attempted {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
