// Package retry provides a small bounded-retry helper with exponential
// backoff, used uniformly by pipeline call sites that talk to rate-limited
// backends (embedding in particular). It wraps cenkalti/backoff rather than
// hand-rolling attempt loops at each call site.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded retry schedule.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1 (no retry).
	MaxAttempts int
	// InitialInterval is the delay before the first retry. Defaults to
	// 250ms if zero. Subsequent delays grow exponentially with jitter.
	InitialInterval time.Duration
	// MaxInterval caps the per-retry delay. Defaults to 5s if zero.
	MaxInterval time.Duration
}

// Do invokes op up to p.MaxAttempts times, sleeping between attempts per the
// exponential backoff schedule. It returns nil as soon as op succeeds, or the
// last error once attempts are exhausted or ctx is cancelled.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	} else {
		eb.InitialInterval = 250 * time.Millisecond
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	} else {
		eb.MaxInterval = 5 * time.Second
	}
	eb.Reset()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry: cancelled before attempt %d: %w", attempt, err)
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := eb.NextBackOff()
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry: cancelled during backoff: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("retry: %d attempts exhausted: %w", attempts, lastErr)
}
