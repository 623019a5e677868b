package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// AssociateQuoteWithCustomerHandler links the quote's aggregate to a
// customer record.
type AssociateQuoteWithCustomerHandler struct {
	*Deps
}

func NewAssociateQuoteWithCustomerHandler(deps *Deps) *AssociateQuoteWithCustomerHandler {
	return &AssociateQuoteWithCustomerHandler{Deps: deps}
}

func (h *AssociateQuoteWithCustomerHandler) Handle(ctx context.Context, cmd commands.AssociateQuoteWithCustomerCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		return a.RecordAssociationWithCustomer(shared.CustomerID(cmd.CustomerID), performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}

// AssignQuoteOwnerHandler assigns the owning user of the quote's aggregate.
type AssignQuoteOwnerHandler struct {
	*Deps
}

func NewAssignQuoteOwnerHandler(deps *Deps) *AssignQuoteOwnerHandler {
	return &AssignQuoteOwnerHandler{Deps: deps}
}

func (h *AssignQuoteOwnerHandler) Handle(ctx context.Context, cmd commands.AssignQuoteOwnerCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		return a.AssignToOwner(shared.UserID(cmd.OwnerUserID), performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}

// MigrateQuoteOrganisationHandler moves the quote's aggregate to another
// organisation.
type MigrateQuoteOrganisationHandler struct {
	*Deps
}

func NewMigrateQuoteOrganisationHandler(deps *Deps) *MigrateQuoteOrganisationHandler {
	return &MigrateQuoteOrganisationHandler{Deps: deps}
}

func (h *MigrateQuoteOrganisationHandler) Handle(ctx context.Context, cmd commands.MigrateQuoteOrganisationCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		return a.RecordOrganisationMigration(shared.OrganisationID(cmd.ToOrganisationID), performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}
