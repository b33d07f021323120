// Package retry runs actions until they succeed or a strategy gives up.
package retry

import (
	"context"
)

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(ctx context.Context, action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier applying strategies to every action. Without
// strategies, actions are retried in a tight loop until they succeed or the
// context is done.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(ctx context.Context, action Action) (uint, error) {
	return Retry(ctx, action, r.strategies...)
}

// Retry runs action until it succeeds, a strategy declines another attempt, or
// ctx is done, and returns the number of attempts made. The action always runs
// at least once. When ctx ends, its error replaces the action's.
//
// Strategies run in order and the first to decline wins, so strategies that
// wait belong last.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	for attempts := uint(1); ; attempts++ {
		err := action()
		if err == nil {
			return attempts, nil
		}
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}

		for _, s := range strategies {
			if !s(ctx, attempts, err) {
				if ctx.Err() != nil {
					return attempts, ctx.Err()
				}
				return attempts, err
			}
		}
	}
}
