// Package retry provides an explicit retry policy for external calls: a
// bounded attempt count with exponential backoff. Policies are plain values
// passed to the call sites that need them, not ambient behavior.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultPolicy is the schedule used for claims-backend calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}

// Permanent wraps an error that must not be retried.
type Permanent struct{ Err error }

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// NonRetryable marks err as permanent so Do stops immediately.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// Do runs fn up to MaxAttempts times, sleeping the backoff schedule between
// attempts. It stops early on success, a permanent error, or context
// cancellation. The returned error is the last attempt's error with the
// Permanent wrapper removed.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	interval := p.InitialInterval
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return perm.Err
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * p.Multiplier)
		if p.MaxInterval > 0 && interval > p.MaxInterval {
			interval = p.MaxInterval
		}
	}
	return lastErr
}
