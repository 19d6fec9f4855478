package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/brieflet/newsbrief-go/internal/indexer"
	"github.com/brieflet/newsbrief-go/internal/ingest"
	"github.com/brieflet/newsbrief-go/internal/newsletter"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	// Must cover a full search-generate-deliver round trip.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
}

// newsletterRunner is the interface handleNewsletter calls to execute a run.
// *newsletter.Orchestrator satisfies it; tests inject a fake.
type newsletterRunner interface {
	Run(ctx context.Context, req newsletter.Request) newsletter.Result
}

// ingester is the interface handleIngest calls to fetch and stage articles.
// *ingest.Pipeline satisfies it; tests inject a fake.
type ingester interface {
	Ingest(ctx context.Context, topic string, page, pageSize int) (ingest.Result, error)
}

// batchProcessor is the interface handleEvents calls to embed and index one
// staged batch. *indexer.Pipeline satisfies it; tests inject a fake.
type batchProcessor interface {
	Process(ctx context.Context, batchKey string) (indexer.Result, error)
}

// Server is the HTTP server exposing the newsletter pipelines.
type Server struct {
	// runner executes on-demand newsletter runs.
	runner newsletterRunner
	// ingester stages fresh articles on demand.
	ingester ingester
	// processor embeds and indexes staged batches.
	processor batchProcessor
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// ingestRequest is the JSON body for POST /api/ingest.
type ingestRequest struct {
	// Topic is the search query; empty means the default topic.
	Topic string `json:"topic,omitempty"`
	// Page is the result page to fetch; zero means the first page.
	Page int `json:"page,omitempty"`
	// PageSize is the number of articles to fetch; zero means the default.
	PageSize int `json:"pageSize,omitempty"`
}

// ingestResponse is the JSON response for POST /api/ingest.
type ingestResponse struct {
	// Fetched is the number of articles returned by the source.
	Fetched int `json:"fetched"`
	// New is the number of previously unseen articles staged.
	New int `json:"new"`
	// Duplicates is the number of articles skipped by the dedup cache.
	Duplicates int `json:"duplicates"`
	// BatchKey names the staged batch blob; empty when nothing was new.
	BatchKey string `json:"batchKey,omitempty"`
}

// eventsRequest is the JSON body for POST /api/events, mirroring a storage
// event notification: one entry per written object.
type eventsRequest struct {
	// Records lists the storage objects that triggered the event.
	Records []eventRecord `json:"records"`
}

// eventRecord identifies one written storage object.
type eventRecord struct {
	// Bucket is the logical store name; informational only.
	Bucket string `json:"bucket,omitempty"`
	// Key is the object key. Only keys matching the batch naming pattern
	// are processed.
	Key string `json:"key"`
}

// eventResult is the per-record outcome in an eventsResponse.
type eventResult struct {
	// Key is the object key this result refers to.
	Key string `json:"key"`
	// Processed is true when the key matched the batch pattern and was
	// indexed successfully.
	Processed bool `json:"processed"`
	// Indexed is the number of articles upserted for this key.
	Indexed int `json:"indexed,omitempty"`
	// Error is the failure reason when Processed is false. Empty for
	// skipped non-batch keys.
	Error string `json:"error,omitempty"`
}

// eventsResponse is the JSON response for POST /api/events.
type eventsResponse struct {
	// Results holds one entry per record, in request order.
	Results []eventResult `json:"results"`
}
