// Package indexer implements the embedding pipeline. It reads a persisted
// article batch from the blob store, computes an embedding per article with
// bounded concurrency and retry, and upserts the surviving vectors with
// metadata into the vector index. One invocation handles exactly one batch
// blob; it is triggered by the `newsbrief index` CLI command and the
// POST /api/events storage-event handler.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brieflet/newsbrief-go/internal/blob"
	"github.com/brieflet/newsbrief-go/internal/news"
	"github.com/brieflet/newsbrief-go/internal/rag"
	"github.com/brieflet/newsbrief-go/internal/retry"
)

// Config holds the tuning knobs for the embedding pipeline.
type Config struct {
	// MaxDocs caps the number of articles processed per invocation to bound
	// cost and latency. Excess articles are logged and skipped, not
	// deferred. Defaults to 50 if zero.
	MaxDocs int

	// Concurrency is the number of articles embedded at a time. Kept
	// deliberately low to respect embedding-provider rate limits.
	// Defaults to 2 if zero.
	Concurrency int

	// InputCharBudget truncates each article's embedding input to respect
	// model input limits. Defaults to 8000 if zero.
	InputCharBudget int

	// ExcerptChars is the length of the content excerpt stored in record
	// metadata for grounding. Defaults to 500 if zero.
	ExcerptChars int

	// EmbedAttempts is the per-article embedding attempt count, including
	// the first. Defaults to 2 if zero.
	EmbedAttempts int
}

// Pipeline orchestrates the read → embed → upsert flow for one batch blob.
type Pipeline struct {
	// blobs reads persisted article batches.
	blobs blob.Store

	// embedder converts article text into dense vectors.
	embedder rag.Embedder

	// index persists the embedded records.
	index rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// log is the structured logger for pipeline events.
	log *slog.Logger
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(blobs blob.Store, embedder rag.Embedder, index rag.VectorStore, cfg *Config, log *slog.Logger) (*Pipeline, error) {
	if blobs == nil {
		return nil, fmt.Errorf("indexer: blob store must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("indexer: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("indexer: vector store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.MaxDocs <= 0 {
		cfg.MaxDocs = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.InputCharBudget <= 0 {
		cfg.InputCharBudget = 8000
	}
	if cfg.ExcerptChars <= 0 {
		cfg.ExcerptChars = 500
	}
	if cfg.EmbedAttempts <= 0 {
		cfg.EmbedAttempts = 2
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		blobs:    blobs,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Result reports what one indexing run did.
type Result struct {
	// Articles is the number of articles read from the batch (post-cap).
	Articles int
	// Indexed is the number of records upserted.
	Indexed int
	// Failed is the number of articles dropped after exhausted retries or
	// dimension mismatch.
	Failed int
}

// Process embeds and upserts one batch blob. A malformed batch is fatal for
// this invocation. Per-article embedding failures drop only that article;
// the run fails only when zero articles survive, which indicates a systemic
// problem (bad credentials, index misconfiguration) that must surface loudly.
func (p *Pipeline) Process(ctx context.Context, batchKey string) (Result, error) {
	data, err := p.blobs.Get(ctx, batchKey)
	if err != nil {
		return Result{}, fmt.Errorf("indexer: read batch %s: %w", batchKey, err)
	}

	var articles []news.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return Result{}, fmt.Errorf("indexer: batch %s is not a JSON article array: %w", batchKey, err)
	}

	if len(articles) > p.cfg.MaxDocs {
		p.log.Warn("indexer: batch exceeds per-invocation cap, skipping excess",
			slog.String("batch_key", batchKey),
			slog.Int("total", len(articles)),
			slog.Int("cap", p.cfg.MaxDocs),
		)
		articles = articles[:p.cfg.MaxDocs]
	}

	var (
		mu      sync.Mutex
		records []rag.Record
		failed  int
	)

	// A fixed-size worker group embeds articles concurrently. Failures are
	// collected under the mutex, never returned through the group, so one
	// bad article cannot cancel its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, article := range articles {
		g.Go(func() error {
			rec, err := p.embedOne(gctx, article)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				p.log.Warn("indexer: article dropped",
					slog.String("url", article.URL),
					slog.String("title", article.Title),
					slog.Any("error", err),
				)
				return nil
			}
			records = append(records, rec)
			return nil
		})
	}

	// Group members never return errors; Wait is the synchronization point
	// that orders the upsert strictly after all attempts have settled.
	_ = g.Wait()

	res := Result{Articles: len(articles), Indexed: len(records), Failed: failed}

	if len(records) == 0 {
		return res, fmt.Errorf("indexer: no articles processed from batch %s", batchKey)
	}

	if err := p.index.Upsert(ctx, records); err != nil {
		return res, fmt.Errorf("indexer: upsert batch %s: %w", batchKey, err)
	}

	p.log.Info("indexer: batch indexed",
		slog.String("batch_key", batchKey),
		slog.Int("indexed", len(records)),
		slog.Int("failed", failed),
	)

	return res, nil
}

// embedOne computes the embedding and record for a single article.
func (p *Pipeline) embedOne(ctx context.Context, a news.Article) (rag.Record, error) {
	input := embeddingInput(a, p.cfg.InputCharBudget)

	var vector []float32
	err := retry.Do(ctx, retry.Policy{MaxAttempts: p.cfg.EmbedAttempts}, func(ctx context.Context) error {
		vectors, err := p.embedder.Embed(ctx, []string{input})
		if err != nil {
			return err
		}
		if len(vectors) != 1 {
			return fmt.Errorf("expected 1 embedding, got %d", len(vectors))
		}
		vector = vectors[0]
		return nil
	})
	if err != nil {
		return rag.Record{}, fmt.Errorf("embed: %w", err)
	}

	if dim := p.index.Dimension(); dim > 0 && len(vector) != dim {
		return rag.Record{}, fmt.Errorf("dimension mismatch: got %d, index expects %d", len(vector), dim)
	}

	return rag.Record{
		ID:     rag.RecordID(a.URL),
		Values: vector,
		Metadata: map[string]string{
			rag.MetaTitle:       a.Title,
			rag.MetaURL:         a.URL,
			rag.MetaPublishedAt: a.PublishedAt,
			rag.MetaSource:      a.SourceName,
			rag.MetaAuthor:      a.Author,
			rag.MetaExcerpt:     excerpt(a, p.cfg.ExcerptChars),
		},
	}, nil
}

// embeddingInput concatenates the article text fields, truncated to the
// character budget.
func embeddingInput(a news.Article, budget int) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{a.Title, a.Description, a.Content} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	input := strings.Join(parts, "\n\n")
	if len(input) > budget {
		input = input[:budget]
	}
	return input
}

// excerpt returns the grounding snippet stored in record metadata,
// preferring the description over the (often truncated) content.
func excerpt(a news.Article, limit int) string {
	s := a.Description
	if s == "" {
		s = a.Content
	}
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}

// IsBatchKey reports whether a storage key names an ingestion batch blob.
func IsBatchKey(key string) bool {
	return strings.HasPrefix(key, "news-") && strings.HasSuffix(key, ".json")
}
