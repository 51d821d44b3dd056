package qgrover

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
)

// RetryPolicy defines how backend calls are retried
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy defines the delay between attempts
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements RetryStrategy
type ExponentialBackoff struct {
	Initial time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return eb.Initial * time.Duration(math.Pow(2, float64(attempt-1)))
}

// NewRetryPolicy retries transient backend failures. Simulator faults and bad
// input are never retried.
func NewRetryPolicy(attempts int, initial time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: attempts,
		Strategy:    &ExponentialBackoff{Initial: initial},
		Filter:      isTransient,
	}
}

func isTransient(err error) bool {
	return !errors.Is(err, ErrNonUnitaryGate) &&
		!errors.Is(err, errBreakerOpen) &&
		!errors.Is(err, ErrInvalidConfiguration) &&
		!errors.Is(err, ErrInvalidDimension) &&
		!errors.Is(err, ErrOutOfRangeQubit) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

/*
Do runs fn until it succeeds, the filter rejects the error, attempts run out
or the context ends. A nil policy runs fn once.
*/
func (rp *RetryPolicy) Do(ctx context.Context, name string, fn func() error) error {
	if rp == nil || rp.MaxAttempts < 1 {
		return fn()
	}

	var lastErr error
	for attempt := 0; attempt < rp.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := rp.Strategy.NextDelay(attempt)
			log.Debug("retrying", "call", name, "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s: %w (last error: %v)", name, ctx.Err(), lastErr)
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if rp.Filter != nil && !rp.Filter(err) {
			return err
		}
	}
	return fmt.Errorf("all %d attempts failed for %s: %w", rp.MaxAttempts, name, lastErr)
}
