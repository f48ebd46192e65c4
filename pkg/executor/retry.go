package executor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/migrationguard/core/pkg/models"
)

// retryPolicy builds the backoff schedule grounded on action_executor.py's
// tenacity decorator: stop_after_attempt(3), wait_exponential(multiplier=1,
// min=2, max=10).
func retryPolicy(base, max time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return backoff.WithMaxRetries(b, 2) // 3 total attempts: 1 initial + 2 retries
}

// withRetry runs fn, retrying only models.IsTransient errors for up to three
// attempts in total with exponential backoff; the attempt count is fixed by
// retryPolicy and does not read config's Retry.MaxAttempts. A permanent error
// propagates on its first occurrence without being retried.
func withRetry(ctx context.Context, base, max time.Duration, fn func(ctx context.Context) (models.ActionResult, error)) (models.ActionResult, error) {
	var result models.ActionResult
	operation := func() error {
		r, err := fn(ctx)
		result = r
		if err != nil && !models.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(retryPolicy(base, max), ctx))
	return result, err
}
