package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brieflet/newsbrief-go/internal/errs"
)

// serviceName identifies this integration in wrapped errors and logs.
const serviceName = "newsapi"

// Client implements Source against a NewsAPI-compatible /v2/everything
// endpoint. It is safe for concurrent use.
type Client struct {
	// baseURL is the API base (e.g. "https://newsapi.org").
	baseURL string
	// apiKey is sent in the X-Api-Key header.
	apiKey string
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// Config holds the settings for constructing a news Client.
type Config struct {
	// BaseURL is the API base URL. Defaults to "https://newsapi.org".
	BaseURL string
	// APIKey is the NewsAPI authentication key.
	APIKey string
	// Timeout bounds each search request. Defaults to 15s if zero.
	Timeout time.Duration
}

// NewClient constructs a Client from the given config.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("news: NEWS_API_KEY is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://newsapi.org"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// searchResponse is the JSON body returned from /v2/everything.
type searchResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message,omitempty"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// Search fetches one page of articles matching query, sorted by relevance.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) ([]Article, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "relevancy")
	params.Set("language", "en")
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))

	endpoint := c.baseURL + "/v2/everything?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(serviceName, "create request", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(serviceName, "search request failed", err)
	}
	defer resp.Body.Close()

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.Wrap(serviceName, "decode response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || result.Status == "error" {
		detail := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Message != "" {
			detail = result.Message
		}
		return nil, errs.Wrap(serviceName, detail, nil)
	}

	articles := make([]Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.URL == "" {
			// An article without a URL cannot be deduplicated or cited.
			continue
		}
		articles = append(articles, Article{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
			Author:      a.Author,
		})
	}

	return articles, nil
}
