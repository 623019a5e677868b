package repository

import (
	"context"

	"go.uber.org/zap"

	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// QuoteAggregateRepository implements quote.Repository over an EventStore:
// load replays the stream, save appends uncommitted events at the loaded
// version.
type QuoteAggregateRepository struct {
	store  EventStore
	logger *zap.Logger
}

func NewQuoteAggregateRepository(store EventStore, logger *zap.Logger) *QuoteAggregateRepository {
	return &QuoteAggregateRepository{store: store, logger: logger}
}

var _ quote.Repository = (*QuoteAggregateRepository)(nil)

func (r *QuoteAggregateRepository) GetByID(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID) (*quote.Aggregate, error) {
	events, err := r.store.GetEvents(ctx, tenantID, aggregateID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, NewAggregateNotFoundError(aggregateID)
	}
	return quote.ReplayAggregate(events)
}

func (r *QuoteAggregateRepository) GetByQuoteID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID) (*quote.Aggregate, error) {
	aggregateID, err := r.ResolveAggregateID(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, aggregateID)
}

func (r *QuoteAggregateRepository) ResolveAggregateID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID) (shared.AggregateID, error) {
	return r.store.ResolveAggregateID(ctx, tenantID, quoteID)
}

// Save appends the aggregate's uncommitted events and marks them committed.
// A version conflict leaves the aggregate untouched so the retry policy can
// reload and reapply.
func (r *QuoteAggregateRepository) Save(ctx context.Context, a *quote.Aggregate) error {
	pending := a.UncommittedEvents()
	if len(pending) == 0 {
		return nil
	}
	if err := r.store.SaveEvents(ctx, a.TenantID, a.ID(), pending, a.Version()); err != nil {
		if IsConcurrencyConflict(err) {
			r.logger.Debug("concurrent write detected on aggregate stream",
				zap.String("aggregateId", a.ID().String()),
				zap.Int("expectedVersion", a.Version().Int()))
		}
		return err
	}
	a.MarkEventsCommitted()
	return nil
}
