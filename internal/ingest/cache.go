package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brieflet/newsbrief-go/internal/blob"
	"github.com/brieflet/newsbrief-go/internal/errs"
)

// CacheKey is the fixed blob key holding the processed-URL cache.
const CacheKey = "processed-urls-cache.json"

// defaultCacheCap bounds the processed-URL cache. When the cap is exceeded
// the oldest hashes are dropped first, so a long-dormant article may be
// re-ingested — acceptable, because vector upserts are idempotent by id.
const defaultCacheCap = 10000

// Fingerprint returns the stable hex digest of an article URL used for
// deduplication. The full sha256 keeps collisions out of the picture.
func Fingerprint(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", sum)
}

// processedCache is the set of URL fingerprints already ingested, kept in
// insertion order so trimming drops the oldest entries first.
//
// The cache is not transactional: two concurrent ingestion runs race on the
// read-modify-write and the last writer wins. The cost of losing that race
// is a duplicate re-ingestion, never data loss.
type processedCache struct {
	// order holds fingerprints oldest-first.
	order []string
	// seen indexes order for O(1) membership checks.
	seen map[string]bool
	// cap is the maximum number of retained fingerprints.
	cap int
}

// loadCache reads the cache blob from the store. A missing cache is an empty
// set, not an error — first runs and cache-loss scenarios degrade to
// re-ingestion, which the idempotent index absorbs.
func loadCache(ctx context.Context, store blob.Store, log *slog.Logger) *processedCache {
	c := &processedCache{seen: make(map[string]bool), cap: defaultCacheCap}

	data, err := store.Get(ctx, CacheKey)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Info("processed-URL cache not found, starting empty", slog.String("key", CacheKey))
		} else {
			log.Warn("processed-URL cache unreadable, starting empty", slog.Any("error", err))
		}
		return c
	}

	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		log.Warn("processed-URL cache corrupt, starting empty", slog.Any("error", err))
		return c
	}

	for _, h := range hashes {
		if !c.seen[h] {
			c.seen[h] = true
			c.order = append(c.order, h)
		}
	}
	return c
}

// contains reports whether the fingerprint is already cached.
func (c *processedCache) contains(fingerprint string) bool {
	return c.seen[fingerprint]
}

// add appends a fingerprint, trimming oldest entries past the cap.
func (c *processedCache) add(fingerprint string) {
	if c.seen[fingerprint] {
		return
	}
	c.seen[fingerprint] = true
	c.order = append(c.order, fingerprint)

	for len(c.order) > c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
}

// save rewrites the cache blob. Failures are the caller's to swallow:
// cache persistence is best-effort by contract.
func (c *processedCache) save(ctx context.Context, store blob.Store) error {
	data, err := json.Marshal(c.order)
	if err != nil {
		return fmt.Errorf("ingest: marshal cache: %w", err)
	}
	if err := store.Put(ctx, CacheKey, data); err != nil {
		return fmt.Errorf("ingest: write cache: %w", err)
	}
	return nil
}
