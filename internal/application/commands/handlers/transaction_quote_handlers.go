package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// The transaction-quote handlers open an adjustment, renewal, or
// cancellation quote inside an existing policy's aggregate. At most one such
// quote may be active at a time; the caller opts into discarding the
// existing one via DiscardExisting, otherwise the command is rejected.

// CreateAdjustmentQuoteHandler opens an adjustment quote.
type CreateAdjustmentQuoteHandler struct {
	*Deps
}

func NewCreateAdjustmentQuoteHandler(deps *Deps) *CreateAdjustmentQuoteHandler {
	return &CreateAdjustmentQuoteHandler{Deps: deps}
}

func (h *CreateAdjustmentQuoteHandler) Handle(ctx context.Context, cmd commands.CreateAdjustmentQuoteCommand) (*models.NewQuoteReadModel, error) {
	return h.openTransactionQuote(ctx, transactionQuoteInputs{
		TenantID:         cmd.TenantID,
		AggregateID:      cmd.AggregateID,
		ProductReleaseID: cmd.ProductReleaseID,
		InitialFormData:  cmd.InitialFormData,
		DiscardExisting:  cmd.DiscardExisting,
	}, (*quote.Aggregate).CreateAdjustmentQuote)
}

// CreateRenewalQuoteHandler opens a renewal quote.
type CreateRenewalQuoteHandler struct {
	*Deps
}

func NewCreateRenewalQuoteHandler(deps *Deps) *CreateRenewalQuoteHandler {
	return &CreateRenewalQuoteHandler{Deps: deps}
}

func (h *CreateRenewalQuoteHandler) Handle(ctx context.Context, cmd commands.CreateRenewalQuoteCommand) (*models.NewQuoteReadModel, error) {
	return h.openTransactionQuote(ctx, transactionQuoteInputs{
		TenantID:         cmd.TenantID,
		AggregateID:      cmd.AggregateID,
		ProductReleaseID: cmd.ProductReleaseID,
		InitialFormData:  cmd.InitialFormData,
		DiscardExisting:  cmd.DiscardExisting,
	}, (*quote.Aggregate).CreateRenewalQuote)
}

// CreateCancellationQuoteHandler opens a cancellation quote.
type CreateCancellationQuoteHandler struct {
	*Deps
}

func NewCreateCancellationQuoteHandler(deps *Deps) *CreateCancellationQuoteHandler {
	return &CreateCancellationQuoteHandler{Deps: deps}
}

func (h *CreateCancellationQuoteHandler) Handle(ctx context.Context, cmd commands.CreateCancellationQuoteCommand) (*models.NewQuoteReadModel, error) {
	return h.openTransactionQuote(ctx, transactionQuoteInputs{
		TenantID:         cmd.TenantID,
		AggregateID:      cmd.AggregateID,
		ProductReleaseID: cmd.ProductReleaseID,
		InitialFormData:  cmd.InitialFormData,
		DiscardExisting:  cmd.DiscardExisting,
	}, (*quote.Aggregate).CreateCancellationQuote)
}

type transactionQuoteInputs struct {
	TenantID         string
	AggregateID      string
	ProductReleaseID string
	InitialFormData  quote.FormData
	DiscardExisting  bool
}

type transactionQuoteFactory func(a *quote.Aggregate, p quote.CreateTransactionQuoteParams) (shared.QuoteID, error)

func (d *Deps) openTransactionQuote(ctx context.Context, in transactionQuoteInputs, create transactionQuoteFactory) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(in.TenantID)
	if err != nil {
		return nil, err
	}
	aggregateID, err := shared.ParseAggregateID(in.AggregateID)
	if err != nil {
		return nil, err
	}

	var newQuoteID shared.QuoteID
	a, err := d.mutateAggregate(ctx, tenantID, aggregateID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		releaseID, err := d.Releases.ResolveReleaseID(ctx, a.TenantID, a.ProductID, a.Environment, shared.ProductReleaseID(in.ProductReleaseID))
		if err != nil {
			return err
		}
		rc := shared.NewReleaseContext(a.TenantID, a.ProductID, a.Environment, releaseID)
		cfg, err := d.Config.GetProductConfiguration(ctx, rc, product.FormTypeQuote)
		if err != nil {
			return err
		}
		now := d.Clock.Now()
		newQuoteID, err = create(a, quote.CreateTransactionQuoteParams{
			ProductReleaseID: releaseID,
			InitialFormData:  in.InitialFormData,
			ExpiresAt:        cfg.ExpiryFor(now),
			DiscardExisting:  in.DiscardExisting,
			PerformingUserID: performedBy,
			Now:              now,
			Workflow:         cfg.Workflow,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, newQuoteID, d.Clock.Now())
}
