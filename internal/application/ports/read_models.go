package ports

import (
	"context"

	"coverstack-backend/internal/application/queries/models"
)

// QuoteReadModelRepository stores the denormalized quote views maintained by
// the projection layer and served by queries.
type QuoteReadModelRepository interface {
	// UpsertQuote writes the view keyed by (tenant, quote id), replacing any
	// previous version.
	UpsertQuote(ctx context.Context, rm *models.NewQuoteReadModel) error

	// GetQuote retrieves one quote view. Missing views fail with NotFound.
	GetQuote(ctx context.Context, tenantID, quoteID string) (*models.NewQuoteReadModel, error)

	// ListQuotesByAggregate retrieves every quote view belonging to an
	// aggregate, newest first.
	ListQuotesByAggregate(ctx context.Context, tenantID, aggregateID string) ([]*models.NewQuoteReadModel, error)
}
