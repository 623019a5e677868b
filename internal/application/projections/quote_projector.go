// Package projections maintains the denormalized quote views consumed by the
// query side. Projections are rebuildable: they derive entirely from the
// event stream and tolerate replays.
package projections

import (
	"context"

	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// QuoteProjector rebuilds the quote views of every aggregate touched by a
// published batch. Rebuilding from the loaded aggregate rather than folding
// individual events keeps the projection idempotent under redelivery and
// out-of-order batches.
type QuoteProjector struct {
	repo   quote.Repository
	views  ports.QuoteReadModelRepository
	logger *zap.Logger
}

func NewQuoteProjector(repo quote.Repository, views ports.QuoteReadModelRepository, logger *zap.Logger) *QuoteProjector {
	return &QuoteProjector{repo: repo, views: views, logger: logger}
}

// HandleEvents refreshes the views of each aggregate in the batch.
func (p *QuoteProjector) HandleEvents(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error {
	touched := make(map[shared.AggregateID]shared.DomainEvent)
	for _, ev := range events {
		touched[ev.AggregateID()] = ev
	}

	for aggregateID, last := range touched {
		if err := p.refreshAggregate(ctx, tenantID, aggregateID, last); err != nil {
			p.logger.Error("failed to project aggregate views",
				zap.String("aggregateId", aggregateID.String()),
				zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *QuoteProjector) refreshAggregate(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, last shared.DomainEvent) error {
	a, err := p.repo.GetByID(ctx, tenantID, aggregateID)
	if err != nil {
		if errors.IsNotFound(err) {
			// Deleted or not yet visible; redelivery will catch up.
			p.logger.Warn("aggregate missing during projection",
				zap.String("aggregateId", aggregateID.String()))
			return nil
		}
		return err
	}
	for quoteID := range a.Quotes {
		rm, err := models.ProjectQuote(a, quoteID, last.Timestamp())
		if err != nil {
			return err
		}
		if err := p.views.UpsertQuote(ctx, rm); err != nil {
			return err
		}
	}
	return nil
}
