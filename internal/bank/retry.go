package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the attempts made for transient failures. Delays double
// from BaseDelay between attempts without jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy allows 5 attempts starting from a 2s delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 2 * time.Second}
}

// attemptFunc is one classified authorization attempt.
type attemptFunc func(ctx context.Context) (Result, error)

// retryNotifier observes a failed attempt before the next one is scheduled.
type retryNotifier func(attempt int, err error, next time.Duration)

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = p.BaseDelay * time.Duration(int64(1)<<uint(attempts))
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// retrying decorates an attempt with the retry policy. Only *TransientError
// failures are retried; rejections are results, and every other error stops
// the loop immediately.
func retrying(policy RetryPolicy, notify retryNotifier, attempt attemptFunc) attemptFunc {
	return func(ctx context.Context) (Result, error) {
		var (
			result Result
			tries  int
		)

		op := func() error {
			tries++
			r, err := attempt(ctx)
			if err == nil {
				result = r
				return nil
			}
			var transient *TransientError
			if errors.As(err, &transient) {
				return err
			}
			return backoff.Permanent(err)
		}

		onRetry := func(err error, next time.Duration) {
			if notify != nil {
				notify(tries, err, next)
			}
		}

		err := backoff.RetryNotify(op, policy.newBackOff(ctx), onRetry)
		if err == nil {
			return result, nil
		}

		var transient *TransientError
		if errors.As(err, &transient) {
			return Result{}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, tries, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return Result{}, fmt.Errorf("bank: authorization abandoned after %d attempts: %w", tries, err)
		}
		return Result{}, err
	}
}
