// Package backoff provides the delay strategies used between retries.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy is a function that provides the amount of time to wait before trying
// again. Note: attempts starts at 1
type Strategy func(attempts uint) time.Duration

// Constant returns a strategy that always returns the provided duration.
func Constant(interval time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		return interval
	}
}

// Exponential returns a strategy that exponentially increases based off of the
// number of attempts.
//
// delay = baseDelay * base^(attempts - 1)
// Ex. Exponential(2*time.Seconds, 3) = 2s, 6s, 18s, 54s, ...
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		delay := float64(baseDelay) * math.Pow(base, float64(attempts-1))
		if delay >= math.MaxInt64 {
			return math.MaxInt64
		}

		return time.Duration(delay)
	}
}

// BinaryExponential returns an Exponential strategy with a base of 2.0
//
// delay = baseDelay * 2^(attempts - 1)
// Ex. BinaryExponential(2*time.Seconds) = 2s, 4s, 8s, 16s, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}

// Capped returns a strategy that never exceeds maxDelay.
func Capped(strategy Strategy, maxDelay time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		if delay := strategy(attempts); delay < maxDelay {
			return delay
		}

		return maxDelay
	}
}

// Jitter returns a strategy that randomizes each delay by +/- fraction of it.
// For example, a delay of 100ms with a fraction of 0.1 results in a delay
// between 90ms and 110ms.
func Jitter(strategy Strategy, fraction float64) Strategy {
	return func(attempts uint) time.Duration {
		delay := strategy(attempts)

		// Center the jitter around the delay:
		//     <---------delay--------->
		//      jitter           jitter
		jittered := float64(delay) * (1 + (rand.Float64()*fraction*2 - fraction))
		if jittered >= math.MaxInt64 {
			return math.MaxInt64
		}

		return time.Duration(jittered)
	}
}
