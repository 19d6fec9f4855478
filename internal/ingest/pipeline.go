// Package ingest implements the article ingestion pipeline. It fetches
// candidate articles for a topic from the document source, filters out ones
// already seen (by URL fingerprint), and persists the new batch as a JSON
// blob for the indexer to consume. This pipeline is invoked by the
// `newsbrief ingest` CLI command and the POST /api/ingest trigger.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brieflet/newsbrief-go/internal/blob"
	"github.com/brieflet/newsbrief-go/internal/news"
)

// BatchKeyPrefix namespaces ingestion output blobs. The indexer's trigger
// filter recognises this prefix.
const BatchKeyPrefix = "news-"

// Defaults for the ingestion trigger payload.
const (
	DefaultTopic    = "Artificial Intelligence"
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Pipeline orchestrates the fetch → dedup → persist flow for one topic query.
type Pipeline struct {
	// source fetches candidate articles.
	source news.Source

	// store persists article batches and the dedup cache.
	store blob.Store

	// log is the structured logger for pipeline events.
	log *slog.Logger

	// now is the clock used for batch key generation; overridable in tests.
	now func() time.Time
}

// NewPipeline constructs a Pipeline from the provided dependencies.
func NewPipeline(source news.Source, store blob.Store, log *slog.Logger) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("ingest: source must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingest: store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		source: source,
		store:  store,
		log:    log,
		now:    time.Now,
	}, nil
}

// Result reports what one ingestion run did.
type Result struct {
	// Fetched is the number of candidate articles returned by the source.
	Fetched int
	// New is the number of articles not seen before.
	New int
	// Duplicates is the number of articles filtered out by the cache.
	Duplicates int
	// BatchKey is the blob key written, empty when New is zero.
	BatchKey string
}

// Ingest runs one ingestion pass. Source failures propagate and fail the
// run — retry belongs to the external scheduler. A run where every article
// is a duplicate is a successful no-op. Cache-update failures are logged
// and swallowed: the cost is potential future re-ingestion, not data loss.
func (p *Pipeline) Ingest(ctx context.Context, topic string, page, pageSize int) (Result, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	articles, err := p.source.Search(ctx, topic, page, pageSize)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: fetch failed for topic %q: %w", topic, err)
	}

	// The source's own limit enforcement is not trusted.
	if len(articles) > pageSize {
		articles = articles[:pageSize]
	}

	cache := loadCache(ctx, p.store, p.log)

	var fresh []news.Article
	duplicates := 0
	for _, a := range articles {
		if cache.contains(Fingerprint(a.URL)) {
			duplicates++
			continue
		}
		fresh = append(fresh, a)
	}

	res := Result{Fetched: len(articles), New: len(fresh), Duplicates: duplicates}

	if len(fresh) == 0 {
		p.log.Info("ingest: no new articles",
			slog.String("topic", topic),
			slog.Int("fetched", len(articles)),
			slog.Int("duplicates", duplicates),
		)
		return res, nil
	}

	data, err := json.Marshal(fresh)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: marshal batch: %w", err)
	}

	batchKey := fmt.Sprintf("%s%d.json", BatchKeyPrefix, p.now().UnixMilli())
	if err := p.store.Put(ctx, batchKey, data); err != nil {
		return Result{}, fmt.Errorf("ingest: write batch %s: %w", batchKey, err)
	}
	res.BatchKey = batchKey

	for _, a := range fresh {
		cache.add(Fingerprint(a.URL))
	}
	if err := cache.save(ctx, p.store); err != nil {
		// Best-effort: a stale cache only means re-ingestion later, and the
		// batch itself is already safely written.
		p.log.Warn("ingest: cache update failed", slog.Any("error", err))
	}

	p.log.Info("ingest: batch written",
		slog.String("topic", topic),
		slog.String("batch_key", batchKey),
		slog.Int("new", len(fresh)),
		slog.Int("duplicates", duplicates),
	)

	return res, nil
}
