// Package blob provides the keyed blob storage used by the ingestion and
// indexing pipelines: article batches are staged as JSON blobs and the
// processed-URL dedup cache is a fixed-key blob alongside them. The
// production implementation is SQLite-backed; the Store interface keeps a
// cloud object store swappable behind the same contract.
package blob

import "context"

// Store is a get/put-by-key blob interface. Implementations must be safe
// for concurrent use.
type Store interface {
	// Put stores data under key, replacing any existing blob.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the blob stored under key. A missing key yields an error
	// satisfying errors.Is(err, errs.ErrNotFound).
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys with the given prefix, ordered oldest-first by
	// write time.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
