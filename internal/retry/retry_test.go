package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func Test_Do_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("want nil error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("want 1 call, got %d", calls)
	}
}

func Test_Do_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("want nil error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("want 3 calls, got %d", calls)
	}
}

func Test_Do_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}, func(context.Context) error {
		calls++
		return sentinel
	})
	if err == nil {
		t.Fatal("want error after exhausted attempts, got nil")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("want wrapped sentinel error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("want 2 calls, got %d", calls)
	}
}

func Test_Do_ZeroAttemptsMeansOne(t *testing.T) {
	t.Parallel()

	calls := 0
	_ = Do(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 {
		t.Errorf("want exactly 1 call for zero MaxAttempts, got %d", calls)
	}
}

func Test_Do_RespectsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 3}, func(context.Context) error {
		calls++
		return errors.New("never retried")
	})
	if err == nil {
		t.Fatal("want error from cancelled context")
	}
	if calls != 0 {
		t.Errorf("want 0 calls on pre-cancelled context, got %d", calls)
	}
}
