package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/turbin3/prereq-client/pkg/retry/backoff"
)

// Strategy decides whether an action that failed with err after attempts
// tries should run again. Strategies may block, but must return promptly once
// ctx is done.
type Strategy func(ctx context.Context, attempts uint, err error) bool

// Limit stops retrying once maxAttempts actions have run. The first run counts
// as an attempt, so Limit(1) never retries.
func Limit(maxAttempts uint) Strategy {
	return func(_ context.Context, attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriableErrors, as
// reported by errors.Is.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}

		return false
	}
}

// Backoff waits before the next attempt, capped at maxBackoff. It gives up
// early if ctx ends while waiting.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	delay := backoff.Capped(strategy, maxBackoff)
	return func(ctx context.Context, attempts uint, _ error) bool {
		return sleep(ctx, delay(attempts))
	}
}

// BackoffWithJitter is Backoff with each capped delay randomized by +/- jitter
// of itself.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return Backoff(backoff.Jitter(backoff.Capped(strategy, maxBackoff), jitter), time.Duration(math.MaxInt64))
}

// sleep reports false if ctx ended before d elapsed. Replaced in tests.
var sleep = func(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
