package repository

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig defines the concurrency retry policy's behavior.
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts, first try included
	BaseDelay     time.Duration // Base delay between retries
	MaxDelay      time.Duration // Cap on the delay between retries
	BackoffFactor float64       // Exponential backoff multiplier
	JitterFactor  float64       // Jitter factor to prevent thundering herd
}

// DefaultRetryConfig returns the retry configuration used by command
// handlers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   4,
		BaseDelay:     50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
	}
}

// UnitOfWork is a load/mutate/save closure. On a concurrency conflict the
// closure runs again from scratch against freshly loaded state; it must not
// capture an aggregate across invocations.
type UnitOfWork func(ctx context.Context) error

// ExecuteWithRetries runs the unit of work, retrying with jittered
// exponential backoff when the save detects an optimistic-concurrency
// conflict. Non-concurrency errors propagate immediately. Even with
// per-aggregate locking this remains necessary: commands from other
// processes, or administrative jobs operating outside the lock's scope, can
// still advance the stream.
func ExecuteWithRetries(ctx context.Context, config RetryConfig, work UnitOfWork) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := work(ctx)
		if err == nil {
			return nil
		}
		if !IsConcurrencyConflict(err) {
			return err
		}
		lastErr = err

		if attempt == config.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(config.delayFor(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return NewConcurrencyExhaustedError(config.MaxAttempts, lastErr)
}

// delayFor calculates the backoff delay for the given attempt number.
func (c RetryConfig) delayFor(attempt int) time.Duration {
	backoff := float64(c.BaseDelay) * math.Pow(c.BackoffFactor, float64(attempt))
	jitter := backoff * c.JitterFactor * (rand.Float64() - 0.5) * 2
	delay := time.Duration(backoff + jitter)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}
