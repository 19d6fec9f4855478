package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/brieflet/newsbrief-go/internal/embedder"
	"github.com/brieflet/newsbrief-go/internal/indexer"
	"github.com/brieflet/newsbrief-go/internal/ingest"
	"github.com/brieflet/newsbrief-go/internal/logging"
	"github.com/brieflet/newsbrief-go/internal/news"
	"github.com/brieflet/newsbrief-go/internal/newsletter"
	"github.com/brieflet/newsbrief-go/internal/provider"
	"github.com/brieflet/newsbrief-go/internal/rag"
	"github.com/brieflet/newsbrief-go/internal/server"
	"github.com/brieflet/newsbrief-go/internal/tracing"
)

// NewServeCmd constructs the `newsbrief serve` command, which starts the HTTP
// server exposing the ingestion, indexing, and newsletter APIs.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the newsbrief HTTP server",
		Long: `Start the newsbrief HTTP server on localhost.

The server exposes a REST API for triggering article ingestion, indexing
staged batches into the vector store, and generating newsletters on demand.
Health and readiness probes and Prometheus metrics are served alongside.

Examples:
  newsbrief serve
  newsbrief serve --port 9090
  MODEL_PROVIDER=azure newsbrief serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			blobs, err := openBlobStore(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = blobs.Close() }()

			index, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = index.Close() }()

			source, err := news.NewClient(&news.Config{
				BaseURL: os.Getenv("NEWS_ENDPOINT"),
				APIKey:  os.Getenv("NEWS_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			ingestPipeline, err := ingest.NewPipeline(source, blobs, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			indexPipeline, err := indexer.NewPipeline(blobs, emb, index, nil, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			retriever, err := rag.NewRetriever(emb, index, 0)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			generator, err := newsletter.NewModelGenerator(chatModel)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			deliverer, err := buildMailer()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			orch, err := newsletter.New(retriever, generator, deliverer, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{
				server.NewQdrantPinger(index.Client()),
				server.NewLLMPinger(provider.NewHealthCheck(providerCfg), string(providerCfg.Backend)),
			}

			srv, err := server.New(orch, ingestPipeline, indexPipeline, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("NEWSBRIEF_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
