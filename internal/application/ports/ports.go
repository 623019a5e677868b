// Package ports declares the interfaces the application layer depends on.
// Infrastructure adapters implement them; handlers and services consume them.
package ports

import (
	"context"

	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// ScopedLock is an opaque acquisition handle. Release frees the resource for
// the next waiter and is safe to call on every exit path; repeat releases
// are no-ops.
type ScopedLock interface {
	Release(ctx context.Context) error
}

// AggregateLockService serializes mutating commands against one aggregate
// instance. The lock is keyed by (tenant, aggregate id, aggregate type) and
// is not reentrant: a second acquisition for the same key from the holder
// times out rather than deadlocking silently.
type AggregateLockService interface {
	// CreateLockOrThrow blocks until the named resource is free or the
	// bounded wait elapses. Failure modes: lock timeout (transient, caller
	// should back off and retry the whole command) or lock-store fault.
	CreateLockOrThrow(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, aggregateType string) (ScopedLock, error)
}

// PaymentRequest carries one payment attempt's inputs to the gateway.
// Exactly one of TokenID, SavedMethodID, or Card is populated.
type PaymentRequest struct {
	Price         quote.PriceBreakdown
	TokenID       string
	SavedMethodID string
	Card          *quote.CardDetails
	Reference     string
}

// PaymentGateway abstracts external payment providers. The aggregate records
// the result but never sees gateway specifics.
type PaymentGateway interface {
	MakePayment(ctx context.Context, req PaymentRequest) (quote.PaymentGatewayResult, error)
}

// ProductConfigProvider supplies the versioned workflow rules and form
// schema that gate state transitions.
type ProductConfigProvider interface {
	GetProductConfiguration(ctx context.Context, rc shared.ReleaseContext, formType product.FormType) (*product.Configuration, error)
	GetFormDataSchema(ctx context.Context, rc shared.ReleaseContext, formType product.FormType) (product.FormSchema, error)
}

// ReleaseQueryService resolves a concrete product release for an operation,
// defaulting to the current default release when no override is given.
type ReleaseQueryService interface {
	ResolveReleaseID(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID, env shared.Environment, override shared.ProductReleaseID) (shared.ProductReleaseID, error)
}

// RatingService runs the product release's calculation logic over form data.
// The calculation definition lives in product configuration; the application
// layer only sees the priced result.
type RatingService interface {
	Calculate(ctx context.Context, rc shared.ReleaseContext, formData quote.FormData) (quote.CalculationResult, error)
}

// EventPublisher hands committed domain events to projection consumers.
// Publishing is after-save and best-effort; the event stream remains the
// source of truth. The tenant travels alongside the batch for routing and
// partitioning.
type EventPublisher interface {
	Publish(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error
}

// ReferenceNumberGenerator allocates human-readable quote and policy
// numbers from a per-tenant sequence.
type ReferenceNumberGenerator interface {
	NextQuoteNumber(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID) (string, error)
	NextPolicyNumber(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID) (string, error)
}
