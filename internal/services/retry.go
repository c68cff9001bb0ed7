package services

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultRetryAttempts bounds in-stage retries on transient failures.
	DefaultRetryAttempts = 3
	// DefaultRetryDelay is the fixed wait between attempts. Backoff is
	// deliberately non-exponential: the third-party services involved
	// recover on the order of seconds and the batch loop is already slow.
	DefaultRetryDelay = 2 * time.Second
)

// Policy describes a fixed-delay retry loop for calls within a single stage.
// Retries never cross stage boundaries.
type Policy struct {
	Attempts int
	Delay    time.Duration

	// Sleeper overrides how delays are performed (used in tests).
	Sleeper func(time.Duration)
}

// DefaultPolicy returns the in-stage retry policy used by all stages.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultRetryAttempts, Delay: DefaultRetryDelay}
}

// Do invokes op until it succeeds, attempts are exhausted, or the context is
// canceled. Errors tagged ErrNotFound, ErrParse, or ErrConfiguration are not
// retried; everything else is treated as retryable within the stage.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == attempts {
			return lastErr
		}
		if err := p.sleep(ctx); err != nil {
			return err
		}
	}
	return lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrParse) || errors.Is(err, ErrConfiguration) {
		return false
	}
	return true
}

func (p Policy) sleep(ctx context.Context) error {
	if p.Delay <= 0 {
		return nil
	}
	if p.Sleeper != nil {
		p.Sleeper(p.Delay)
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
