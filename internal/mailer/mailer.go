// Package mailer provides the email delivery client for the newsletter
// orchestrator. The production implementation talks to a Resend-compatible
// transactional email REST API via plain HTTP — no additional SDK
// dependencies are required.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brieflet/newsbrief-go/internal/errs"
)

// serviceName identifies this integration in wrapped errors and logs.
const serviceName = "resend"

// Deliverer sends a formatted message to one or more recipients.
// Implementations must be safe to call from multiple goroutines.
type Deliverer interface {
	// Send delivers an HTML email and returns the provider's message id.
	Send(ctx context.Context, to []string, subject, htmlBody string) (messageID string, err error)
}

// Client implements Deliverer against a Resend-compatible /emails endpoint.
type Client struct {
	// baseURL is the API base (e.g. "https://api.resend.com").
	baseURL string
	// apiKey is the Bearer token.
	apiKey string
	// from is the sender address used on every message.
	from string
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// Config holds the settings for constructing a mailer Client.
type Config struct {
	// BaseURL is the API base URL. Defaults to "https://api.resend.com".
	BaseURL string
	// APIKey is the email API authentication key.
	APIKey string
	// From is the sender address (e.g. "Newsbrief <digest@example.com>").
	From string
	// Timeout bounds each send request. Defaults to 15s if zero.
	Timeout time.Duration
}

// NewClient constructs a Client from the given config.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailer: RESEND_API_KEY is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mailer: EMAIL_FROM is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.resend.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// sendRequest is the JSON body sent to the /emails endpoint.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse is the JSON body returned from the /emails endpoint.
type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// Send delivers one HTML email to all recipients and returns the provider's
// message id.
func (c *Client) Send(ctx context.Context, to []string, subject, htmlBody string) (string, error) {
	if len(to) == 0 {
		return "", fmt.Errorf("mailer: at least one recipient is required")
	}

	payload, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return "", errs.Wrap(serviceName, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", errs.Wrap(serviceName, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.Wrap(serviceName, "send request failed", err)
	}
	defer resp.Body.Close()

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errs.Wrap(serviceName, "decode response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Message != "" {
			detail = result.Message
		}
		return "", errs.Wrap(serviceName, detail, nil)
	}

	if result.ID == "" {
		return "", errs.Wrap(serviceName, "response missing message id", nil)
	}

	return result.ID, nil
}
