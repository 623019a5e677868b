// Package handlers contains one command handler per use case. Every handler
// follows the same shape: resolve the aggregate id, acquire the scoped lock,
// load the aggregate by replay, invoke aggregate behavior, persist, and
// return a read-model projection. Side effects are strictly ordered: the
// lock is held before load, the save happens before the lock is released,
// and external side effects needing durability run before the
// event-appending save.
package handlers

import (
	"context"

	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/repository"
)

// Deps bundles the collaborators every handler needs. Handlers embed it so
// construction stays uniform across the command surface.
type Deps struct {
	Repo      quote.Repository
	Locks     ports.AggregateLockService
	Retry     repository.RetryConfig
	Clock     shared.Clock
	Identity  shared.IdentityProvider
	Publisher ports.EventPublisher
	Config    ports.ProductConfigProvider
	Releases  ports.ReleaseQueryService
	Numbers   ports.ReferenceNumberGenerator
	Payments  ports.PaymentGateway
	Ratings   ports.RatingService
	Logger    *zap.Logger
}

// mutation is the aggregate behavior a handler runs inside the critical
// section. It may run more than once when the save hits a concurrency
// conflict, each time against freshly loaded state.
type mutation func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error

// mutateAggregate is the shared critical-section driver: lock, then
// load-mutate-save under the concurrency retry policy, then publish the
// committed events. The lock is released on every exit path, including
// cancellation between acquisition and save.
func (d *Deps) mutateAggregate(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, fn mutation) (*quote.Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock, err := d.Locks.CreateLockOrThrow(ctx, tenantID, aggregateID, quote.AggregateType)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			d.Logger.Warn("failed to release aggregate lock",
				zap.String("aggregateId", aggregateID.String()),
				zap.Error(releaseErr))
		}
	}()

	performedBy := d.Identity.PerformingUser(ctx)

	var a *quote.Aggregate
	err = repository.ExecuteWithRetries(ctx, d.Retry, func(ctx context.Context) error {
		var loadErr error
		a, loadErr = d.Repo.GetByID(ctx, tenantID, aggregateID)
		if loadErr != nil {
			return loadErr
		}
		if mutErr := fn(ctx, a, performedBy); mutErr != nil {
			return mutErr
		}
		committed := a.UncommittedEvents()
		if saveErr := d.Repo.Save(ctx, a); saveErr != nil {
			return saveErr
		}
		d.publish(ctx, tenantID, committed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// mutateByQuoteID resolves the owning aggregate through the quote-id index
// first, then runs the critical section.
func (d *Deps) mutateByQuoteID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID, fn mutation) (*quote.Aggregate, error) {
	aggregateID, err := d.Repo.ResolveAggregateID(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	return d.mutateAggregate(ctx, tenantID, aggregateID, fn)
}

// publish hands committed events to projection consumers. Best-effort: a
// publish failure is logged, never surfaced, because the event stream is the
// source of truth and projections can catch up.
func (d *Deps) publish(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := d.Publisher.Publish(ctx, tenantID, events); err != nil {
		d.Logger.Error("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}

// workflowFor loads the workflow governing the given quote's release.
func (d *Deps) workflowFor(ctx context.Context, a *quote.Aggregate, q *quote.Quote) (*quote.Workflow, error) {
	rc := shared.NewReleaseContext(a.TenantID, a.ProductID, a.Environment, q.ProductReleaseID)
	cfg, err := d.Config.GetProductConfiguration(ctx, rc, product.FormTypeQuote)
	if err != nil {
		return nil, err
	}
	return cfg.Workflow, nil
}

// configFor loads the full product configuration for the quote's release.
func (d *Deps) configFor(ctx context.Context, a *quote.Aggregate, q *quote.Quote) (*product.Configuration, error) {
	rc := shared.NewReleaseContext(a.TenantID, a.ProductID, a.Environment, q.ProductReleaseID)
	return d.Config.GetProductConfiguration(ctx, rc, product.FormTypeQuote)
}
