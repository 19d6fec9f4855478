package blob

import (
	"context"
	"errors"
	"testing"

	"github.com/brieflet/newsbrief-go/internal/errs"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_PutAndGet(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "news-1.json", []byte(`[{"url":"u"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := s.Get(ctx, "news-1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `[{"url":"u"}]` {
		t.Errorf("unexpected data: %s", data)
	}
}

func Test_Store_PutReplacesExisting(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "cache.json", []byte("v1")); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	if err := s.Put(ctx, "cache.json", []byte("v2")); err != nil {
		t.Fatalf("put v2: %v", err)
	}

	data, err := s.Get(ctx, "cache.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("want v2 after overwrite, got %s", data)
	}
}

func Test_Store_GetMissingIsNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "absent")
	if err == nil {
		t.Fatal("want error for missing key")
	}
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func Test_Store_ListByPrefix(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"news-1.json", "news-2.json", "processed-urls-cache.json"} {
		if err := s.Put(ctx, key, []byte("x")); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, err := s.List(ctx, "news-")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("want 2 keys, got %d: %v", len(keys), keys)
	}
	for _, k := range keys {
		if k == "processed-urls-cache.json" {
			t.Errorf("cache key must not match news- prefix")
		}
	}
}
