package errors

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior for failed sink operations
type RetryPolicy struct {
	// MaxAttempts is the number of retries after the first failure
	// (0 = fail immediately)
	MaxAttempts int
	// InitialBackoff is the delay before the first retry
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential growth
	MaxBackoff time.Duration
	// Multiplier grows the backoff between attempts (default 2.0)
	Multiplier float64
	// Jitter randomizes backoff by +/- this fraction (0.0-1.0)
	Jitter float64
	// Retriable decides whether an error is worth retrying; nil retries
	// everything except context cancellation
	Retriable func(error) bool
}

// DefaultRetryPolicy returns a bounded exponential backoff policy
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
		Retriable:      IsRetriable,
	}
}

// NoRetryPolicy fails on the first error, matching the reference
// fail-fast behavior
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 0}
}

// Execute runs op, retrying per the policy. It returns nil on the first
// success, the last error once attempts are exhausted or the error is
// classified non-retriable, and ctx.Err() if cancelled while backing off.
func (rp *RetryPolicy) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= rp.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if rp.Retriable != nil && !rp.Retriable(lastErr) {
			return lastErr
		}
		if attempt == rp.MaxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rp.backoff(attempt)):
		}
	}

	return lastErr
}

// backoff computes the delay before retry number attempt+1
func (rp *RetryPolicy) backoff(attempt int) time.Duration {
	multiplier := rp.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	d := float64(rp.InitialBackoff) * math.Pow(multiplier, float64(attempt))
	if max := float64(rp.MaxBackoff); max > 0 && d > max {
		d = max
	}

	if rp.Jitter > 0 {
		d += d * rp.Jitter * (2*rand.Float64() - 1)
	}
	if d < 0 {
		d = 0
	}

	return time.Duration(d)
}
