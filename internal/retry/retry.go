// Package retry re-runs a whole unit of work when it failed for a reason
// that may not repeat, such as a lost version race.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	// Retryable decides whether a failed attempt is worth repeating.
	Retryable func(error) bool
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.BaseBackoff > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = p.BaseBackoff
		exp.MaxInterval = 50 * p.BaseBackoff
		exp.MaxElapsedTime = 0
		b = exp
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// policy's attempts are used up. The last error is returned unchanged.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		result, err := op(ctx)
		if err != nil && (policy.Retryable == nil || !policy.Retryable(err)) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, policy.backOff(ctx))
}
