// Package retry adapts the retry config section to exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"brokerage-matchmaking/internal/common/config"
	apperrors "brokerage-matchmaking/internal/common/errors"
)

// Policy bounds how often and how slowly an operation is retried.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Retryable decides whether err is transient. Defaults to apperrors.IsRetryable.
	Retryable func(err error) bool
}

// DefaultPolicy mirrors the retry section defaults.
var DefaultPolicy = Policy{
	MaxRetries: 3,
	BaseDelay:  100 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// NoRetry runs the operation exactly once.
var NoRetry = Policy{}

// FromConfig converts the retry config section.
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  config.GetDuration(cfg.BaseDelay),
		MaxDelay:   config.GetDuration(cfg.MaxDelay),
	}
}

// Delay returns the backoff before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	b := p.backOff()
	var d time.Duration
	for i := 0; i <= attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	maxInterval := p.MaxDelay
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return apperrors.IsRetryable(err)
}

// Do calls fn until it succeeds, returns a non-retryable error, the budget is
// spent or ctx is done. The last error from fn is returned unchanged.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := 0
	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), uint64(max(p.MaxRetries, 0))), ctx)

	err := backoff.Retry(func() error {
		attempts++
		lastErr = fn(ctx)
		if lastErr != nil && !p.retryable(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, b)
	if err == nil {
		return nil
	}
	if lastErr != nil && ctx.Err() != nil {
		return fmt.Errorf("cancelled after %d attempts: %w", attempts, lastErr)
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
