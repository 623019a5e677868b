package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverstack-backend/internal/errors"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
	}
}

func TestExecuteWithRetriesSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := ExecuteWithRetries(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetriesRetriesVersionConflicts(t *testing.T) {
	calls := 0
	err := ExecuteWithRetries(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &AggregateVersionError{AggregateID: "agg-1", ExpectedVersion: 2, ActualVersion: 3}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetriesDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	domainErr := errors.Domain(errors.CodeOperationNotPermitted.String(), "not permitted").Build()
	err := ExecuteWithRetries(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return domainErr
	})
	require.ErrorIs(t, err, domainErr)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetriesExhaustion(t *testing.T) {
	calls := 0
	err := ExecuteWithRetries(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return &AggregateVersionError{AggregateID: "agg-1"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.IsConflict(err))
	assert.True(t, errors.IsRetryable(err))
	// The final conflict is preserved as the cause.
	assert.True(t, IsConcurrencyConflict(err))
}

func TestExecuteWithRetriesHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := ExecuteWithRetries(ctx, fastRetryConfig(), func(ctx context.Context) error {
		calls++
		cancel()
		return &AggregateVersionError{AggregateID: "agg-1"}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDelayForRespectsCap(t *testing.T) {
	cfg := RetryConfig{
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      150 * time.Millisecond,
		BackoffFactor: 10,
		JitterFactor:  0.2,
	}
	for attempt := 0; attempt < 5; attempt++ {
		d := cfg.delayFor(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, cfg.MaxDelay)
	}
}
