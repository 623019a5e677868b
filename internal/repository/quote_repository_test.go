package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
	"coverstack-backend/internal/infrastructure/memory"
	"coverstack-backend/internal/repository"
)

func newRepo(t *testing.T) (*repository.QuoteAggregateRepository, *memory.EventStore) {
	t.Helper()
	store := memory.NewEventStore()
	return repository.NewQuoteAggregateRepository(store, zap.NewNop()), store
}

func createAggregate(t *testing.T) *quote.Aggregate {
	t.Helper()
	a, err := quote.CreateNewBusinessQuote(quote.CreateNewBusinessQuoteParams{
		TenantID:         "acme",
		ProductID:        "commercial-property",
		Environment:      shared.EnvironmentDevelopment,
		ProductReleaseID: "2026-01",
		InitialFormData:  quote.FormData{"buildingValue": 100000.0},
		PerformingUserID: "broker-1",
		Now:              time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return a
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	a := createAggregate(t)

	require.NoError(t, repo.Save(ctx, a))
	assert.Empty(t, a.UncommittedEvents())
	assert.Equal(t, shared.Version(2), a.Version())

	loaded, err := repo.GetByID(ctx, "acme", a.ID())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), loaded.ID())
	assert.Equal(t, a.Version(), loaded.Version())
	assert.Len(t, loaded.Quotes, 1)
}

func TestGetByQuoteIDUsesIndex(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	a := createAggregate(t)
	require.NoError(t, repo.Save(ctx, a))

	var quoteID shared.QuoteID
	for id := range a.Quotes {
		quoteID = id
	}

	loaded, err := repo.GetByQuoteID(ctx, "acme", quoteID)
	require.NoError(t, err)
	assert.Equal(t, a.ID(), loaded.ID())

	_, err = repo.GetByQuoteID(ctx, "acme", "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadMissingAggregate(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.GetByID(context.Background(), "acme", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestConcurrentSaveDetectsVersionConflict(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	a := createAggregate(t)
	require.NoError(t, repo.Save(ctx, a))

	var quoteID shared.QuoteID
	for id := range a.Quotes {
		quoteID = id
	}
	now := time.Date(2026, 2, 1, 12, 5, 0, 0, time.UTC)

	// Two copies loaded at the same version mutate independently.
	first, err := repo.GetByID(ctx, "acme", a.ID())
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "acme", a.ID())
	require.NoError(t, err)

	require.NoError(t, first.UpdateFormData(quoteID, quote.FormData{"buildingValue": 1.0}, nil, "u1", now))
	require.NoError(t, second.UpdateFormData(quoteID, quote.FormData{"buildingValue": 2.0}, nil, "u2", now))

	require.NoError(t, repo.Save(ctx, first))

	err = repo.Save(ctx, second)
	require.Error(t, err)
	assert.True(t, repository.IsConcurrencyConflict(err))

	// The loser's events were not persisted.
	loaded, err := repo.GetByID(ctx, "acme", a.ID())
	require.NoError(t, err)
	assert.Equal(t, quote.FormData{"buildingValue": 1.0}, loaded.Quotes[quoteID].LatestFormData)
}

func TestSaveNothingPendingIsNoOp(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	a := createAggregate(t)
	require.NoError(t, repo.Save(ctx, a))

	loaded, err := repo.GetByID(ctx, "acme", a.ID())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, shared.Version(2), loaded.Version())
}

func TestTenantIsolation(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	a := createAggregate(t)
	require.NoError(t, repo.Save(ctx, a))

	_, err := repo.GetByID(ctx, "other-tenant", a.ID())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
