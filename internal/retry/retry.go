// Package retry runs idempotent calls with bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config configures exponential backoff retry behavior.
type Config struct {
	MaxRetries int           // extra attempts after the first one
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // upper bound for a single delay
	Multiplier float64       // growth factor between delays
	Jitter     float64       // randomization factor in [0,1); 0 keeps delays exact
}

// DefaultConfig returns the provider defaults: two retries, 200ms doubling up to 5s.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
	}
}

// NewBackOff builds the policy for one call: exponential delays, at most
// MaxRetries retries, stopped early when ctx is done.
func (c Config) NewBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	b.RandomizationFactor = c.Jitter
	b.Multiplier = c.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	if c.MaxDelay > 0 {
		b.MaxInterval = c.MaxDelay
	}
	// Attempts are bounded by count, not by wall time.
	b.MaxElapsedTime = 0
	b.Reset()

	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
}

// Hook is notified before each retry with the failed attempt number (1-based), its error and the delay.
type Hook func(attempt int, err error, delay time.Duration)

// Do calls fn until it succeeds, returns a non-retryable error, the retries run out
// or ctx is done. Cancellation of ctx is never retried; the last error from fn is
// returned instead of the context error.
func Do[T any](
	ctx context.Context, cfg Config, retryable func(error) bool, onRetry Hook,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var (
		zero    T
		lastErr error
		attempt int
	)

	op := func() (T, error) {
		attempt++
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}

	notify := func(err error, delay time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}

	res, err := backoff.RetryNotifyWithData[T](op, cfg.NewBackOff(ctx), notify)
	if err != nil {
		if lastErr != nil {
			return zero, lastErr
		}
		return zero, err
	}
	return res, nil
}
