package quote

import (
	"context"

	"coverstack-backend/internal/domain/shared"
)

// Repository loads aggregates by replaying their persisted event streams and
// appends newly raised events. Save detects optimistic-concurrency conflicts
// when the persisted stream has advanced past the loaded version.
type Repository interface {
	// GetByID loads an aggregate by replaying its full event stream.
	GetByID(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID) (*Aggregate, error)

	// GetByQuoteID resolves the owning aggregate through the quote-id
	// secondary index, then loads it. Adjustment, renewal, and cancellation
	// quotes share an aggregate keyed by the original policy id.
	GetByQuoteID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID) (*Aggregate, error)

	// ResolveAggregateID maps a quote id to its owning aggregate id.
	ResolveAggregateID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID) (shared.AggregateID, error)

	// Save appends the aggregate's uncommitted events at its loaded version,
	// failing with a concurrency conflict when the stream has moved on.
	Save(ctx context.Context, a *Aggregate) error
}
