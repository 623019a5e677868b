package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
)

func TestLockServiceAcquireAndRelease(t *testing.T) {
	s := NewLockService(time.Second)
	ctx := context.Background()
	aggregateID := shared.NewAggregateID()

	lock, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))

	// The slot is free again.
	lock, err = s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

func TestLockServiceSecondAcquisitionTimesOut(t *testing.T) {
	s := NewLockService(20 * time.Millisecond)
	ctx := context.Background()
	aggregateID := shared.NewAggregateID()

	lock, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)
	defer lock.Release(ctx)

	_, err = s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.Error(t, err)
	assert.True(t, ports.IsLockTimeout(err))
}

func TestLockServiceDifferentAggregatesDoNotContend(t *testing.T) {
	s := NewLockService(20 * time.Millisecond)
	ctx := context.Background()

	first, err := s.CreateLockOrThrow(ctx, "acme", shared.NewAggregateID(), "QuoteAggregate")
	require.NoError(t, err)
	defer first.Release(ctx)

	second, err := s.CreateLockOrThrow(ctx, "acme", shared.NewAggregateID(), "QuoteAggregate")
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestLockServiceTenantsAreIsolated(t *testing.T) {
	s := NewLockService(20 * time.Millisecond)
	ctx := context.Background()
	aggregateID := shared.NewAggregateID()

	first, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)
	defer first.Release(ctx)

	second, err := s.CreateLockOrThrow(ctx, "globex", aggregateID, "QuoteAggregate")
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestLockServiceWaiterAcquiresAfterRelease(t *testing.T) {
	s := NewLockService(time.Second)
	ctx := context.Background()
	aggregateID := shared.NewAggregateID()

	lock, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		waiter, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
		if err == nil {
			waiter.Release(ctx)
		}
		acquired <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, lock.Release(ctx))

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestLockServiceAcquireHonorsContextCancellation(t *testing.T) {
	s := NewLockService(time.Second)
	aggregateID := shared.NewAggregateID()

	lock, err := s.CreateLockOrThrow(context.Background(), "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)
	defer lock.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.ErrorIs(t, err, context.Canceled)
}

func TestScopedLockReleaseIsIdempotent(t *testing.T) {
	s := NewLockService(20 * time.Millisecond)
	ctx := context.Background()
	aggregateID := shared.NewAggregateID()

	lock, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx))

	// A double release must not free the slot twice and let two holders in.
	first, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.NoError(t, err)
	defer first.Release(ctx)

	_, err = s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
	require.Error(t, err)
	assert.True(t, ports.IsLockTimeout(err))
}

func TestLockServiceSerializesConcurrentHolders(t *testing.T) {
	s := NewLockService(2 * time.Second)
	ctx := context.Background()
	aggregateID := shared.NewAggregateID()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := s.CreateLockOrThrow(ctx, "acme", aggregateID, "QuoteAggregate")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
			lock.Release(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}
