package utils

import (
	"context"
	"fmt"
	"time"
)

// DefaultBackoff is the wait between consecutive feed fetch attempts.
var DefaultBackoff = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

// RetryPolicy holds the parameters for the retry strategy.
// MaxAttempts counts the first call, so 5 means one call plus four retries.
// The wait before retry n is Backoff[n-1]; the last entry repeats when the
// schedule is shorter than MaxAttempts-1.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
	Clock       Clock
	Logger      *Logger
}

// NewRetryPolicy returns a policy with maxRetries retries on the default schedule.
func NewRetryPolicy(maxRetries int, logger *Logger) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: maxRetries + 1,
		Backoff:     DefaultBackoff,
		Clock:       RealClock(),
		Logger:      logger,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (r *RetryPolicy) Delay(attempt int) time.Duration {
	if len(r.Backoff) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(r.Backoff) {
		idx = len(r.Backoff) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return r.Backoff[idx]
}

// Do executes fn until it succeeds, the attempts run out or ctx is done.
// Cancellation is checked before every attempt and during every backoff wait,
// so a cancelled run never starts another attempt.
func (r *RetryPolicy) Do(ctx context.Context, operationName string, fn func(ctx context.Context) error) error {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	clock := r.Clock
	if clock == nil {
		clock = RealClock()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s aborted after %d attempts: %w", operationName, attempt-1, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		delay := r.Delay(attempt)
		if r.Logger != nil {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
				operationName, attempt, maxAttempts, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s aborted after %d attempts: %w", operationName, attempt, ctx.Err())
		case <-clock.After(delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxAttempts, lastErr)
}
