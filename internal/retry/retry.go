// Package retry runs operations again after transient failures.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dtroode/qubras-auth/internal/model"
)

// DelayFunc returns the wait before the attempt following failed attempt n (1-based).
type DelayFunc func(attempt int) time.Duration

// Linear waits attempt × step between attempts.
func Linear(step time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Operation is a single attempt. attempt starts at 1.
type Operation func(ctx context.Context, attempt int) error

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	return errors.Is(err, model.ErrUnavailable)
}

// WithBackoff runs op until it succeeds, returns a non-transient error,
// maxAttempts is reached or ctx is done. The last error is returned.
func WithBackoff(ctx context.Context, op Operation, maxAttempts int, delay DelayFunc) error {
	if maxAttempts <= 1 {
		// WithMaxRetries treats zero as unlimited.
		return op(ctx, 1)
	}

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op(ctx, attempt)
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&delays{fn: delay}, uint64(maxAttempts-1)),
		ctx,
	)
	return backoff.Retry(wrapped, b)
}

// delays adapts a DelayFunc to backoff.BackOff.
type delays struct {
	fn      DelayFunc
	attempt int
}

func (d *delays) NextBackOff() time.Duration {
	d.attempt++
	if d.fn == nil {
		return 0
	}
	return d.fn(d.attempt)
}

func (d *delays) Reset() {
	d.attempt = 0
}
