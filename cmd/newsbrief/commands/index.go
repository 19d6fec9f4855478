package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brieflet/newsbrief-go/internal/blob"
	"github.com/brieflet/newsbrief-go/internal/embedder"
	"github.com/brieflet/newsbrief-go/internal/indexer"
	"github.com/brieflet/newsbrief-go/internal/ingest"
	"github.com/brieflet/newsbrief-go/internal/logging"
)

// NewIndexCmd constructs the `newsbrief index` command, which embeds staged
// article batches and upserts them into the Qdrant vector store.
func NewIndexCmd() *cobra.Command {
	var batchKey string
	var all bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed staged article batches into the vector store",
		Long: `Embed the articles of a staged batch and upsert them into the Qdrant
vector index with deterministic URL-derived ids, so re-indexing the same
article overwrites rather than duplicates.

Per-article embedding failures drop only that article; the run fails only
when no article in the batch could be embedded.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: news-articles)
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides

Examples:
  newsbrief index --batch news-1700000000000.json
  newsbrief index --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if batchKey == "" && !all {
				return fmt.Errorf("index: provide --batch <key> or --all")
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("index: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("index: failed to initialise embedder: %w", err)
			}

			store, err := openBlobStore(log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer func() { _ = store.Close() }()

			index, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer func() { _ = index.Close() }()

			pipeline, err := indexer.NewPipeline(store, emb, index, nil, log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			keys := []string{batchKey}
			if all {
				keys, err = listBatchKeys(ctx, store)
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
				if len(keys) == 0 {
					fmt.Println("no staged batches found")
					return nil
				}
			}

			// Process batches independently; fail the command only when every
			// batch failed.
			failed := 0
			for _, key := range keys {
				res, err := pipeline.Process(ctx, key)
				if err != nil {
					failed++
					fmt.Printf("batch %s failed: %v\n", key, err)
					continue
				}
				fmt.Printf("batch %s: indexed %d article(s), %d failed\n", key, res.Indexed, res.Failed)
			}
			if failed == len(keys) {
				return fmt.Errorf("index: all %d batch(es) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&batchKey, "batch", "b", "", "Batch blob key to index (e.g. news-1700000000000.json)")
	cmd.Flags().BoolVar(&all, "all", false, "Index every staged batch")

	return cmd
}

// listBatchKeys returns every staged batch key in the blob store, oldest
// first. The fixed-key dedup cache blob is excluded by the naming pattern.
func listBatchKeys(ctx context.Context, store *blob.SQLiteStore) ([]string, error) {
	keys, err := store.List(ctx, ingest.BatchKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list staged batches: %w", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if indexer.IsBatchKey(k) {
			out = append(out, k)
		}
	}
	return out, nil
}
