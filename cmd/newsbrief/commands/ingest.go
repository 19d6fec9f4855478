package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brieflet/newsbrief-go/internal/embedder"
	"github.com/brieflet/newsbrief-go/internal/indexer"
	"github.com/brieflet/newsbrief-go/internal/ingest"
	"github.com/brieflet/newsbrief-go/internal/logging"
	"github.com/brieflet/newsbrief-go/internal/news"
)

// NewIngestCmd constructs the `newsbrief ingest` command, which fetches
// fresh articles for a topic and stages a deduplicated batch in the blob
// store.
func NewIngestCmd() *cobra.Command {
	var topic string
	var page int
	var pageSize int
	var alsoIndex bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch fresh articles and stage a deduplicated batch",
		Long: `Fetch news articles matching a topic, drop the ones already seen, and
stage the remainder as a batch in the blob store.

Articles are deduplicated by URL against a bounded processed-URL cache, so
running ingest repeatedly only stages genuinely new articles. Use --index to
immediately embed and index the staged batch in one step.

Required environment variables:
  NEWS_API_KEY         News API authentication key

Examples:
  newsbrief ingest
  newsbrief ingest --topic "Quantum Computing" --page-size 20
  newsbrief ingest --index`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			source, err := news.NewClient(&news.Config{
				BaseURL: os.Getenv("NEWS_ENDPOINT"),
				APIKey:  os.Getenv("NEWS_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			store, err := openBlobStore(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = store.Close() }()

			pipeline, err := ingest.NewPipeline(source, store, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			if topic == "" {
				topic = os.Getenv("NEWS_TOPIC")
			}

			res, err := pipeline.Ingest(ctx, topic, page, pageSize)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Printf("fetched %d article(s): %d new, %d duplicate(s)\n",
				res.Fetched, res.New, res.Duplicates)
			if res.BatchKey == "" {
				fmt.Println("nothing new to stage")
				return nil
			}
			fmt.Printf("staged batch %s\n", res.BatchKey)

			if !alsoIndex {
				return nil
			}

			// --index: embed and upsert the staged batch immediately.
			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}

			index, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = index.Close() }()

			proc, err := indexer.NewPipeline(store, emb, index, nil, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			procRes, err := proc.Process(ctx, res.BatchKey)
			if err != nil {
				return fmt.Errorf("ingest: indexing failed: %w", err)
			}
			log.Info("batch indexed",
				slog.String("batch", res.BatchKey),
				slog.Int("indexed", procRes.Indexed),
				slog.Int("failed", procRes.Failed),
			)
			fmt.Printf("indexed %d article(s), %d failed\n", procRes.Indexed, procRes.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to search for (default: Artificial Intelligence)")
	cmd.Flags().IntVar(&page, "page", 0, "Result page to fetch")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Number of articles to fetch")
	cmd.Flags().BoolVar(&alsoIndex, "index", false, "Embed and index the staged batch immediately")

	return cmd
}
