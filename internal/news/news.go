// Package news defines the article data model and the document source
// abstraction for the ingestion pipeline. The production implementation
// talks to a NewsAPI-compatible search endpoint via plain HTTP — no
// additional SDK dependencies are required.
package news

import "context"

// Article is a single news item returned by the document source. Articles
// are immutable once fetched: the ingestion pipeline persists them as a
// batch and the indexer consumes each batch exactly once.
type Article struct {
	// Title is the article headline.
	Title string `json:"title"`

	// Description is the source-provided summary. May be empty.
	Description string `json:"description,omitempty"`

	// Content is the article body, often truncated by the source. May be empty.
	Content string `json:"content,omitempty"`

	// URL is the canonical article link. It is the deduplication key: two
	// articles with the same URL are the same article regardless of other
	// field differences.
	URL string `json:"url"`

	// PublishedAt is the publication timestamp as reported by the source
	// (RFC3339 string, passed through unparsed).
	PublishedAt string `json:"publishedAt"`

	// SourceName is the publisher name (e.g. "Ars Technica").
	SourceName string `json:"sourceName"`

	// Author is the article byline. May be empty.
	Author string `json:"author,omitempty"`
}

// Source fetches a page of candidate articles for a topic query, sorted by
// relevance. Implementations must be safe to call from multiple goroutines.
type Source interface {
	// Search returns up to pageSize articles matching query at the given
	// 1-based page. The result length is a hint only; callers enforce the
	// cap themselves.
	Search(ctx context.Context, query string, page, pageSize int) ([]Article, error)
}
