package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// CalculateQuoteHandler runs the release's rating logic over the quote's
// latest form data and records the priced result on the aggregate.
type CalculateQuoteHandler struct {
	*Deps
}

func NewCalculateQuoteHandler(deps *Deps) *CalculateQuoteHandler {
	return &CalculateQuoteHandler{Deps: deps}
}

func (h *CalculateQuoteHandler) Handle(ctx context.Context, cmd commands.CalculateQuoteCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		q, err := a.Quote(quoteID)
		if err != nil {
			return err
		}
		rc := shared.NewReleaseContext(a.TenantID, a.ProductID, a.Environment, q.ProductReleaseID)
		calc, err := h.Ratings.Calculate(ctx, rc, q.LatestFormData)
		if err != nil {
			return err
		}
		return a.RecordCalculationResult(quoteID, calc, performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}
