package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/brieflet/newsbrief-go/internal/blob"
	"github.com/brieflet/newsbrief-go/internal/news"
)

// fakeSource returns canned articles or an error.
type fakeSource struct {
	articles []news.Article
	err      error
}

func (f *fakeSource) Search(context.Context, string, int, int) ([]news.Article, error) {
	return f.articles, f.err
}

// newTestPipeline wires a pipeline over an in-memory blob store.
func newTestPipeline(t *testing.T, source news.Source) (*Pipeline, *blob.SQLiteStore) {
	t.Helper()
	store, err := blob.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	p, err := NewPipeline(source, store, slog.Default())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p, store
}

func articlesFixture(n int) []news.Article {
	out := make([]news.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, news.Article{
			Title: fmt.Sprintf("Article %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		})
	}
	return out
}

func Test_Ingest_WritesNewBatch(t *testing.T) {
	t.Parallel()

	p, store := newTestPipeline(t, &fakeSource{articles: articlesFixture(3)})
	ctx := context.Background()

	res, err := p.Ingest(ctx, "ai", 1, 10)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.New != 3 || res.Duplicates != 0 {
		t.Errorf("want 3 new / 0 dup, got %d / %d", res.New, res.Duplicates)
	}
	if res.BatchKey == "" {
		t.Fatal("want a batch key")
	}

	data, err := store.Get(ctx, res.BatchKey)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	var batch []news.Article
	if err := json.Unmarshal(data, &batch); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if len(batch) != 3 {
		t.Errorf("want 3 articles in batch, got %d", len(batch))
	}
}

func Test_Ingest_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()

	p, store := newTestPipeline(t, &fakeSource{articles: articlesFixture(3)})
	ctx := context.Background()

	if _, err := p.Ingest(ctx, "ai", 1, 10); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	cacheBefore, err := store.Get(ctx, CacheKey)
	if err != nil {
		t.Fatalf("get cache: %v", err)
	}

	// Deterministic batch keys collide only within the same millisecond;
	// advance the clock to make the second run distinguishable.
	p.now = func() time.Time { return time.Now().Add(time.Second) }

	res, err := p.Ingest(ctx, "ai", 1, 10)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if res.New != 0 || res.Duplicates != 3 {
		t.Errorf("want 0 new / 3 dup on repeat, got %d / %d", res.New, res.Duplicates)
	}
	if res.BatchKey != "" {
		t.Errorf("want no batch written on repeat, got %q", res.BatchKey)
	}

	cacheAfter, err := store.Get(ctx, CacheKey)
	if err != nil {
		t.Fatalf("get cache after: %v", err)
	}
	if string(cacheBefore) != string(cacheAfter) {
		t.Error("cache must be unchanged by a pure-duplicate run")
	}

	keys, err := store.List(ctx, BatchKeyPrefix)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("want exactly 1 batch blob, got %d", len(keys))
	}
}

func Test_Ingest_TruncatesToPageSize(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, &fakeSource{articles: articlesFixture(20)})

	res, err := p.Ingest(context.Background(), "ai", 1, 5)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Fetched != 5 || res.New != 5 {
		t.Errorf("want fetch truncated to 5, got fetched=%d new=%d", res.Fetched, res.New)
	}
}

func Test_Ingest_SourceFailurePropagates(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, &fakeSource{err: errors.New("newsapi down")})

	if _, err := p.Ingest(context.Background(), "ai", 1, 10); err == nil {
		t.Fatal("want error when source fails")
	}
}

func Test_Cache_CapDropsOldestFirst(t *testing.T) {
	t.Parallel()

	c := &processedCache{seen: make(map[string]bool), cap: 3}
	for i := 0; i < 5; i++ {
		c.add(fmt.Sprintf("hash-%d", i))
	}

	if len(c.order) != 3 {
		t.Fatalf("want cache trimmed to cap 3, got %d", len(c.order))
	}
	// Oldest two dropped, newest three retained.
	for _, dropped := range []string{"hash-0", "hash-1"} {
		if c.contains(dropped) {
			t.Errorf("want %s evicted", dropped)
		}
	}
	for _, kept := range []string{"hash-2", "hash-3", "hash-4"} {
		if !c.contains(kept) {
			t.Errorf("want %s retained", kept)
		}
	}
}

func Test_Fingerprint_StableHexDigest(t *testing.T) {
	t.Parallel()

	a := Fingerprint("https://example.com/x")
	if a != Fingerprint("https://example.com/x") {
		t.Error("fingerprint must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("want 64-char hex digest, got %d chars", len(a))
	}
}
