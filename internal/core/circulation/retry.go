// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	ErrInvalidMaxAttempts  = errors.New("max attempts must be positive")
	ErrNegativeBaseDelay   = errors.New("base delay must not be negative")
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc is one attempt of an atomic step.
type RetryableFunc func(ctx context.Context) error

type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	onRetry      func(attempt int, err error)
}

// RetryOption configures [RetryOnConflict].
type RetryOption func(*retryConfig) error

func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}
		config.maxAttempts = attempts
		return nil
	}
}

func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}
		config.baseDelay = delay
		return nil
	}
}

func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0 || factor > 1 {
			return ErrInvalidJitterFactor
		}
		config.jitterFactor = factor
		return nil
	}
}

// WithOnRetry registers a callback invoked before every retry with the
// attempt number that just failed (1-based) and its error.
func WithOnRetry(callback func(attempt int, err error)) RetryOption {
	return func(config *retryConfig) error {
		config.onRetry = callback
		return nil
	}
}

/*
RetryOnConflict runs fn until it succeeds, fails with a non-conflict error, or
the attempt budget is spent.

Only errors matching [ErrConflict] are retried. Policy rejections and
[ErrUnavailable] return immediately. Between attempts it sleeps
baseDelay * 2^(attempt-1) plus jitter; with the defaults that is 10ms then 20ms.

When the budget runs out, the result is ErrConflict carrying the last cause.
*/
func RetryOnConflict(ctx context.Context, fn RetryableFunc, options ...RetryOption) error {
	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec // jitter only
			timer := time.NewTimer(delay + time.Duration(jitter))

			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !errors.Is(lastErr, ErrConflict) {
			return lastErr
		}

		if config.onRetry != nil && attempt < config.maxAttempts-1 {
			config.onRetry(attempt+1, lastErr)
		}
	}

	return ErrConflict.WithCause(lastErr)
}
