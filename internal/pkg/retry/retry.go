// Package retry provides a small bounded-attempt wrapper with exponential
// backoff. Operations decide nothing about retrying themselves; callers pick
// a policy and wrap the call.
package retry

import (
	"context"
	"time"
)

// Policy bounds the attempts and shapes the pauses between them.
type Policy struct {
	// Attempts is the total number of tries, minimum 1.
	Attempts int
	// Base is the pause after the first failed attempt.
	Base time.Duration
	// Factor multiplies the pause after each further failure.
	Factor int
	// Max caps the pause; zero means uncapped.
	Max time.Duration
}

// Delay returns the pause taken after the given 1-based failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	delay := p.Base
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(factor)
		if p.Max > 0 && delay >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && delay > p.Max {
		return p.Max
	}
	return delay
}

// Do runs op until it succeeds, the attempts are spent, or the context ends.
// The sleep between attempts is context-aware; cancellation during a pause
// returns the context error, otherwise the last operation error is returned.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}
