// Package queries implements the read side: thin handlers serving the
// denormalized views maintained by the projection layer. Queries never load
// aggregates and never take locks.
package queries

import (
	"context"

	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/application/queries/models"
)

// GetQuoteQuery retrieves one quote view.
type GetQuoteQuery struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
}

func (GetQuoteQuery) QueryName() string { return "GetQuote" }

// ListAggregateQuotesQuery retrieves every quote view of one aggregate,
// newest first.
type ListAggregateQuotesQuery struct {
	TenantID    string `json:"tenantId" validate:"required"`
	AggregateID string `json:"aggregateId" validate:"required,uuid4"`
}

func (ListAggregateQuotesQuery) QueryName() string { return "ListAggregateQuotes" }

// QuoteQueryService serves quote views.
type QuoteQueryService struct {
	views  ports.QuoteReadModelRepository
	logger *zap.Logger
}

func NewQuoteQueryService(views ports.QuoteReadModelRepository, logger *zap.Logger) *QuoteQueryService {
	return &QuoteQueryService{views: views, logger: logger}
}

func (s *QuoteQueryService) GetQuote(ctx context.Context, q GetQuoteQuery) (*models.NewQuoteReadModel, error) {
	return s.views.GetQuote(ctx, q.TenantID, q.QuoteID)
}

func (s *QuoteQueryService) ListAggregateQuotes(ctx context.Context, q ListAggregateQuotesQuery) ([]*models.NewQuoteReadModel, error) {
	return s.views.ListQuotesByAggregate(ctx, q.TenantID, q.AggregateID)
}
