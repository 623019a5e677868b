package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// UpdateFormDataHandler records a new form payload for a quote. The first
// payload moves a nascent quote to incomplete.
type UpdateFormDataHandler struct {
	*Deps
}

func NewUpdateFormDataHandler(deps *Deps) *UpdateFormDataHandler {
	return &UpdateFormDataHandler{Deps: deps}
}

func (h *UpdateFormDataHandler) Handle(ctx context.Context, cmd commands.UpdateFormDataCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		return a.UpdateFormData(quoteID, cmd.FormData, cmd.CustomerDetails, performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}
