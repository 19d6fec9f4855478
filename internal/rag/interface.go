// Package rag defines the interfaces for the retrieval side of the
// newsletter pipeline: vector storage, similarity search, and embedding.
// Concrete implementations (Qdrant, etc.) satisfy these interfaces so the
// orchestrator never depends on a specific backend.
package rag

import (
	"context"

	"github.com/google/uuid"
)

// Metadata keys stored alongside every vector record. The orchestrator
// renders these fields into the generation prompt, so ingestion and
// retrieval must agree on the key names.
const (
	MetaTitle       = "title"
	MetaURL         = "url"
	MetaPublishedAt = "publishedAt"
	MetaSource      = "source"
	MetaAuthor      = "author"
	MetaExcerpt     = "excerpt"
)

// Record is the unit stored in the vector index.
type Record struct {
	// ID is the deterministic identifier derived from the article URL via
	// RecordID, so re-ingesting an unchanged article overwrites rather
	// than duplicates.
	ID string

	// Values is the embedding vector. Its length must match the index's
	// configured dimension.
	Values []float32

	// Metadata holds the grounding fields (see the Meta* constants).
	Metadata map[string]string
}

// SearchResult is one hit from a similarity query. Higher scores are more
// relevant (cosine similarity).
type SearchResult struct {
	// ID is the record identifier.
	ID string

	// Score is the similarity score assigned by the index.
	Score float32

	// Metadata is the stored payload for this record.
	Metadata map[string]string
}

// Stats summarises the state of the vector index.
type Stats struct {
	// Points is the number of records currently stored.
	Points uint64
}

// VectorStore is the interface for persisting and searching embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of records (insert-or-replace by ID).
	Upsert(ctx context.Context, records []Record) error

	// Search returns the top-k most relevant records for the query
	// embedding, with metadata included.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]SearchResult, error)

	// Delete removes records by their IDs.
	Delete(ctx context.Context, ids []string) error

	// DeleteBySource removes all records whose source metadata matches.
	DeleteBySource(ctx context.Context, source string) error

	// Stats returns index statistics.
	Stats(ctx context.Context) (Stats, error)

	// Dimension returns the configured vector dimensionality of the index.
	Dimension() int

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Query and document embeddings must come from the same model, or similarity
// scores are meaningless. Implementations must be safe to call from multiple
// goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// RecordID derives the deterministic vector id for an article URL. It is a
// UUIDv5 in the URL namespace, which the index accepts as a point id and
// which makes upserts of the same URL idempotent.
func RecordID(articleURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(articleURL)).String()
}
