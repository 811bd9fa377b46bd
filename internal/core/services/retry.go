package services

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/archivist-labs/parley-cli/internal/logger"
)

// RetryPolicy retries failed external calls with exponential backoff and
// jitter. Exhaustion converts to the last error, never an infinite loop.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// BaseDelay is the delay after the first failure; it doubles per
	// attempt up to MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// Retryable classifies errors. If nil, all errors trigger retry.
	Retryable func(err error) bool
}

// NewRetryPolicy creates a policy with sensible defaults.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    30 * time.Second,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, the
// attempt budget is exhausted, or the context is cancelled.
func (p *RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.backoff(attempt)
		logger.Warn("Attempt %d/%d failed: %v (retrying in %s)", attempt, p.MaxAttempts, lastErr, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// backoff computes the delay for the given 1-based attempt: exponential
// growth with up to 25% random jitter, capped at MaxDelay.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && delay > max {
		delay = max
	}
	jitter := delay * 0.25 * rand.Float64() //nolint:gosec // jitter, not crypto
	return time.Duration(delay + jitter)
}
