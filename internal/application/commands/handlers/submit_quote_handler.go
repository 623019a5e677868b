package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// SubmitQuoteHandler submits the quote, assigns its human-readable quote
// number on first submission, and advances it straight through auto-approval
// or into review referral depending on the latest calculation's triggers.
type SubmitQuoteHandler struct {
	*Deps
}

func NewSubmitQuoteHandler(deps *Deps) *SubmitQuoteHandler {
	return &SubmitQuoteHandler{Deps: deps}
}

func (h *SubmitQuoteHandler) Handle(ctx context.Context, cmd commands.SubmitQuoteCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	// Allocated once per command execution. A concurrency retry reuses the
	// number instead of burning another sequence value.
	var quoteNumber string

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		q, err := a.Quote(quoteID)
		if err != nil {
			return err
		}
		cfg, err := h.configFor(ctx, a, q)
		if err != nil {
			return err
		}
		now := h.Clock.Now()

		if err := a.Submit(quoteID, performedBy, now, cfg.Workflow); err != nil {
			return err
		}

		if q.QuoteNumber == "" {
			if quoteNumber == "" {
				seq, err := h.Numbers.NextQuoteNumber(ctx, a.TenantID, a.ProductID)
				if err != nil {
					return err
				}
				quoteNumber = cfg.QuoteNumberPrefix + seq
			}
			if err := a.AssignQuoteNumber(quoteID, quoteNumber, performedBy, now); err != nil {
				return err
			}
		}

		if q.LatestCalculation == nil {
			return nil
		}
		if q.LatestCalculation.RequiresReferral() {
			if cfg.Workflow.IsActionPermitted(quote.ActionReferForReview, q.State) {
				return a.RecordWorkflowStep(quoteID, quote.ActionReferForReview, performedBy, now, cfg.Workflow)
			}
			return nil
		}
		if cfg.Workflow.IsActionPermitted(quote.ActionAutoApprove, q.State) {
			return a.RecordWorkflowStep(quoteID, quote.ActionAutoApprove, performedBy, now, cfg.Workflow)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}
