package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/shared"
)

// CloneQuoteFromExpiredQuoteHandler creates a brand new aggregate from an
// expired new-business quote. The original aggregate is read but never
// mutated, so no lock is taken against it; the clone starts at version zero
// under a freshly generated id.
type CloneQuoteFromExpiredQuoteHandler struct {
	*Deps
}

func NewCloneQuoteFromExpiredQuoteHandler(deps *Deps) *CloneQuoteFromExpiredQuoteHandler {
	return &CloneQuoteFromExpiredQuoteHandler{Deps: deps}
}

func (h *CloneQuoteFromExpiredQuoteHandler) Handle(ctx context.Context, cmd commands.CloneQuoteFromExpiredQuoteCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	original, err := h.Repo.GetByQuoteID(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}

	releaseID, err := h.Releases.ResolveReleaseID(ctx, original.TenantID, original.ProductID, original.Environment, shared.ProductReleaseID(cmd.ProductReleaseID))
	if err != nil {
		return nil, err
	}
	rc := shared.NewReleaseContext(original.TenantID, original.ProductID, original.Environment, releaseID)
	cfg, err := h.Config.GetProductConfiguration(ctx, rc, product.FormTypeQuote)
	if err != nil {
		return nil, err
	}

	now := h.Clock.Now()
	performedBy := h.Identity.PerformingUser(ctx)
	clone, err := original.CloneForExpiredQuote(quoteID, releaseID, cfg.ExpiryFor(now), performedBy, now)
	if err != nil {
		return nil, err
	}

	newQuoteID := shared.QuoteID(clone.ID())
	committed := clone.UncommittedEvents()
	if err := h.Repo.Save(ctx, clone); err != nil {
		return nil, err
	}
	h.publish(ctx, tenantID, committed)

	return models.ProjectQuote(clone, newQuoteID, now)
}
