// Package repository defines the persistence abstractions for event-sourced
// aggregates: the event store contract, optimistic-concurrency detection, and
// the retry policy wrapping load/mutate/save units of work.
package repository

import (
	"context"

	"coverstack-backend/internal/domain/shared"
)

// EventStore persists domain events as the durable log of an aggregate. The
// stream's append order is the authoritative order of business meaning.
type EventStore interface {
	// SaveEvents appends events at expectedVersion. When the persisted
	// stream's version has advanced past expectedVersion, it fails with an
	// *AggregateVersionError and persists nothing.
	SaveEvents(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, events []shared.DomainEvent, expectedVersion shared.Version) error

	// GetEvents retrieves the full stream for an aggregate in append order.
	// A missing stream yields an empty slice, not an error.
	GetEvents(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID) ([]shared.DomainEvent, error)

	// ResolveAggregateID maps a quote id to its owning aggregate id through
	// the store's secondary index. Missing mappings fail with NotFound.
	ResolveAggregateID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID) (shared.AggregateID, error)
}
