// Package resilience provides the retry policy used for Overpass API calls:
// a bounded number of attempts with a fixed inter-attempt delay. The remote
// queries are read-only, so every attempt is safe to repeat.
package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first try.
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// Delay is the fixed wait between attempts. Default: 5s.
	Delay time.Duration

	// ShouldRetry overrides the default transient-error check. If nil,
	// IsTransient is used.
	ShouldRetry func(err error) bool

	// OnAttempt is called after every attempt with its outcome; err is nil
	// on success. Attempt numbers are 1-based.
	OnAttempt func(attempt, max int, err error)
}

// DefaultPolicy matches the Overpass usage guidance: three attempts five
// seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 5 * time.Second}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Delay <= 0 {
		p.Delay = 5 * time.Second
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = IsTransient
	}
	return p
}

// Do executes fn under the policy, retrying transient failures. Context
// cancellation stops retries immediately; the sleep between attempts is
// context-aware.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations that return a value. The value from the first
// successful attempt is returned.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, p.MaxAttempts, err)
		}
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !p.ShouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// AttemptLogger returns an OnAttempt callback that logs failed attempts.
func AttemptLogger(operation string) func(int, int, error) {
	return func(attempt, max int, err error) {
		if err == nil {
			return
		}
		zap.L().Warn("attempt failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", max),
			zap.Error(err),
		)
	}
}
