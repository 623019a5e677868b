package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// CreateNewBusinessQuoteHandler seeds a brand new aggregate. No lock is
// taken: a freshly generated aggregate id cannot be contended, and the
// version-0 conditional append rejects the pathological duplicate.
type CreateNewBusinessQuoteHandler struct {
	*Deps
}

func NewCreateNewBusinessQuoteHandler(deps *Deps) *CreateNewBusinessQuoteHandler {
	return &CreateNewBusinessQuoteHandler{Deps: deps}
}

func (h *CreateNewBusinessQuoteHandler) Handle(ctx context.Context, cmd commands.CreateNewBusinessQuoteCommand) (*models.NewQuoteReadModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	env, err := shared.ParseEnvironment(cmd.Environment)
	if err != nil {
		return nil, err
	}
	productID := shared.ProductID(cmd.ProductID)

	releaseID, err := h.Releases.ResolveReleaseID(ctx, tenantID, productID, env, shared.ProductReleaseID(cmd.ProductReleaseID))
	if err != nil {
		return nil, err
	}
	rc := shared.NewReleaseContext(tenantID, productID, env, releaseID)
	cfg, err := h.Config.GetProductConfiguration(ctx, rc, product.FormTypeQuote)
	if err != nil {
		return nil, err
	}

	now := h.Clock.Now()
	performedBy := h.Identity.PerformingUser(ctx)
	a, err := quote.CreateNewBusinessQuote(quote.CreateNewBusinessQuoteParams{
		TenantID:         tenantID,
		OrganisationID:   shared.OrganisationID(cmd.OrganisationID),
		ProductID:        productID,
		Environment:      env,
		IsTestData:       cmd.IsTestData,
		ProductReleaseID: releaseID,
		OwnerUserID:      performedBy,
		CustomerID:       shared.CustomerID(cmd.CustomerID),
		InitialFormData:  cmd.InitialFormData,
		ExpiresAt:        cfg.ExpiryFor(now),
		PerformingUserID: performedBy,
		Now:              now,
	})
	if err != nil {
		return nil, err
	}

	quoteID := shared.QuoteID(a.ID())
	committed := a.UncommittedEvents()
	if err := h.Repo.Save(ctx, a); err != nil {
		return nil, err
	}
	h.publish(ctx, tenantID, committed)

	return models.ProjectQuote(a, quoteID, now)
}
