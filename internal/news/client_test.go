package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brieflet/newsbrief-go/internal/errs"
)

// newTestClient returns a Client pointed at the given test server.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(&Config{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func Test_Client_Search(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("want X-Api-Key test-key, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("q") != "quantum computing" {
			t.Errorf("want query %q, got %q", "quantum computing", q.Get("q"))
		}
		if q.Get("page") != "2" || q.Get("pageSize") != "5" {
			t.Errorf("want page=2 pageSize=5, got page=%s pageSize=%s", q.Get("page"), q.Get("pageSize"))
		}
		fmt.Fprint(w, `{
			"status": "ok",
			"totalResults": 2,
			"articles": [
				{"source":{"name":"Wired"},"author":"A. Writer","title":"Qubits","description":"d1","url":"https://example.com/a","publishedAt":"2026-01-02T03:04:05Z","content":"c1"},
				{"source":{"name":"Ars"},"title":"No URL article","url":""}
			]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	articles, err := c.Search(context.Background(), "quantum computing", 2, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("want 1 article (URL-less dropped), got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "Qubits" || a.URL != "https://example.com/a" || a.SourceName != "Wired" {
		t.Errorf("unexpected article: %+v", a)
	}
}

func Test_Client_SearchAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Search(context.Background(), "ai", 1, 10)
	if err == nil {
		t.Fatal("want error for 401 response")
	}
	ie, ok := errs.AsIntegration(err)
	if !ok {
		t.Fatalf("want Integration error, got %T: %v", err, err)
	}
	if ie.Service != "newsapi" {
		t.Errorf("want service newsapi, got %q", ie.Service)
	}
	if ie.Detail != "Your API key is invalid" {
		t.Errorf("want API message in detail, got %q", ie.Detail)
	}
}

func Test_NewClient_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(&Config{}); err == nil {
		t.Fatal("want error when API key is missing")
	}
}
