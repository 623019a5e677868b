package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// The workflow-step handlers all share the same shape: gate the action
// through the release's workflow inside the critical section and record the
// transition.

// DeclineQuoteHandler declines the quote.
type DeclineQuoteHandler struct {
	*Deps
}

func NewDeclineQuoteHandler(deps *Deps) *DeclineQuoteHandler {
	return &DeclineQuoteHandler{Deps: deps}
}

func (h *DeclineQuoteHandler) Handle(ctx context.Context, cmd commands.DeclineQuoteCommand) (*models.NewQuoteReadModel, error) {
	return h.runWorkflowStep(ctx, cmd.TenantID, cmd.QuoteID, func(a *quote.Aggregate, quoteID shared.QuoteID, performedBy shared.UserID, wf *quote.Workflow) error {
		return a.Decline(quoteID, cmd.Reason, performedBy, h.Clock.Now(), wf)
	})
}

// ReferQuoteForEndorsementHandler sends the quote to an underwriter.
type ReferQuoteForEndorsementHandler struct {
	*Deps
}

func NewReferQuoteForEndorsementHandler(deps *Deps) *ReferQuoteForEndorsementHandler {
	return &ReferQuoteForEndorsementHandler{Deps: deps}
}

func (h *ReferQuoteForEndorsementHandler) Handle(ctx context.Context, cmd commands.ReferQuoteForEndorsementCommand) (*models.NewQuoteReadModel, error) {
	return h.runWorkflowStep(ctx, cmd.TenantID, cmd.QuoteID, func(a *quote.Aggregate, quoteID shared.QuoteID, performedBy shared.UserID, wf *quote.Workflow) error {
		return a.ReferForEndorsement(quoteID, performedBy, h.Clock.Now(), wf)
	})
}

// ApproveEndorsementHandler approves a previously referred quote.
type ApproveEndorsementHandler struct {
	*Deps
}

func NewApproveEndorsementHandler(deps *Deps) *ApproveEndorsementHandler {
	return &ApproveEndorsementHandler{Deps: deps}
}

func (h *ApproveEndorsementHandler) Handle(ctx context.Context, cmd commands.ApproveEndorsementCommand) (*models.NewQuoteReadModel, error) {
	return h.runWorkflowStep(ctx, cmd.TenantID, cmd.QuoteID, func(a *quote.Aggregate, quoteID shared.QuoteID, performedBy shared.UserID, wf *quote.Workflow) error {
		return a.ApproveEndorsement(quoteID, performedBy, h.Clock.Now(), wf)
	})
}

// DiscardQuoteHandler retires the quote without deleting its history.
type DiscardQuoteHandler struct {
	*Deps
}

func NewDiscardQuoteHandler(deps *Deps) *DiscardQuoteHandler {
	return &DiscardQuoteHandler{Deps: deps}
}

func (h *DiscardQuoteHandler) Handle(ctx context.Context, cmd commands.DiscardQuoteCommand) (*models.NewQuoteReadModel, error) {
	return h.runWorkflowStep(ctx, cmd.TenantID, cmd.QuoteID, func(a *quote.Aggregate, quoteID shared.QuoteID, performedBy shared.UserID, wf *quote.Workflow) error {
		return a.Discard(quoteID, cmd.Reason, performedBy, h.Clock.Now(), wf)
	})
}

// ExpireQuoteHandler marks the quote expired. Expiry also happens lazily on
// the clone path; this handler lets sweep jobs retire stale quotes without
// waiting for one.
type ExpireQuoteHandler struct {
	*Deps
}

func NewExpireQuoteHandler(deps *Deps) *ExpireQuoteHandler {
	return &ExpireQuoteHandler{Deps: deps}
}

func (h *ExpireQuoteHandler) Handle(ctx context.Context, cmd commands.ExpireQuoteCommand) (*models.NewQuoteReadModel, error) {
	return h.runWorkflowStep(ctx, cmd.TenantID, cmd.QuoteID, func(a *quote.Aggregate, quoteID shared.QuoteID, performedBy shared.UserID, wf *quote.Workflow) error {
		return a.Expire(quoteID, performedBy, h.Clock.Now(), wf)
	})
}

type workflowStep func(a *quote.Aggregate, quoteID shared.QuoteID, performedBy shared.UserID, wf *quote.Workflow) error

func (d *Deps) runWorkflowStep(ctx context.Context, rawTenantID, rawQuoteID string, step workflowStep) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(rawTenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(rawQuoteID)
	if err != nil {
		return nil, err
	}

	a, err := d.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		q, err := a.Quote(quoteID)
		if err != nil {
			return err
		}
		wf, err := d.workflowFor(ctx, a, q)
		if err != nil {
			return err
		}
		return step(a, quoteID, performedBy, wf)
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, d.Clock.Now())
}
