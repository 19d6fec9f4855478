package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(&Config{
		BaseURL: srv.URL,
		APIKey:  "re_test",
		From:    "Newsbrief <digest@example.com>",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func Test_Client_Send(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer re_test" {
			t.Errorf("want bearer auth, got %q", got)
		}
		var body struct {
			From    string   `json:"from"`
			To      []string `json:"to"`
			Subject string   `json:"subject"`
			HTML    string   `json:"html"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.To) != 2 || body.To[0] != "a@example.com" {
			t.Errorf("unexpected recipients: %v", body.To)
		}
		if body.Subject != "Weekly AI Digest" || body.HTML != "<p>hello</p>" {
			t.Errorf("unexpected subject/body: %q / %q", body.Subject, body.HTML)
		}
		fmt.Fprint(w, `{"id":"msg_123"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	id, err := c.Send(context.Background(), []string{"a@example.com", "b@example.com"}, "Weekly AI Digest", "<p>hello</p>")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "msg_123" {
		t.Errorf("want message id msg_123, got %q", id)
	}
}

func Test_Client_SendAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"Invalid from address"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.Send(context.Background(), []string{"a@example.com"}, "s", "b"); err == nil {
		t.Fatal("want error for 422 response")
	}
}

func Test_Client_SendRequiresRecipients(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty recipient list")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.Send(context.Background(), nil, "s", "b"); err == nil {
		t.Fatal("want error for empty recipient list")
	}
}

func Test_NewClient_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(&Config{From: "x@y"}); err == nil {
		t.Error("want error when API key is missing")
	}
	if _, err := NewClient(&Config{APIKey: "k"}); err == nil {
		t.Error("want error when From is missing")
	}
}
