// Package errs defines the shared error types used across the newsbrief
// pipelines. Upstream failures (news API, blob store, Qdrant, embedding and
// chat backends, email delivery) are wrapped into a single Integration error
// carrying the name of the failing service, so callers can log and branch on
// the integration point without inspecting provider-specific error shapes.
package errs

import (
	"errors"
	"fmt"
)

// Integration is an error from an external collaborator. Service identifies
// the integration point (e.g. "newsapi", "qdrant", "resend"); Detail is a
// human-readable description safe to surface in responses. The wrapped cause
// is preserved for logs only.
type Integration struct {
	// Service is the short name of the failing integration.
	Service string
	// Detail describes what was being attempted.
	Detail string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Integration) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Service, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Detail, e.Err)
}

// Unwrap returns the underlying cause for errors.Is / errors.As.
func (e *Integration) Unwrap() error { return e.Err }

// Wrap constructs an Integration error for the given service and detail.
func Wrap(service, detail string, err error) error {
	return &Integration{Service: service, Detail: detail, Err: err}
}

// AsIntegration extracts an *Integration from err's chain, if present.
func AsIntegration(err error) (*Integration, bool) {
	var ie *Integration
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// ErrNotFound is returned by stores when a requested key does not exist.
// Callers that tolerate absence (e.g. a missing dedup cache) check for it
// with errors.Is.
var ErrNotFound = errors.New("not found")
