package handlers

import (
	"context"
	"time"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// BindPolicyHandler binds an approved quote, taking payment first when the
// quote carries a payable premium and is not yet funded. Payment and bind
// land in the same save: either both are durable or neither is.
type BindPolicyHandler struct {
	*Deps
}

func NewBindPolicyHandler(deps *Deps) *BindPolicyHandler {
	return &BindPolicyHandler{Deps: deps}
}

func (h *BindPolicyHandler) Handle(ctx context.Context, cmd commands.BindPolicyCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	attempt := &paymentAttempt{
		TokenID:       cmd.TokenID,
		SavedMethodID: cmd.SavedMethodID,
		Card:          cmd.Card,
	}
	// Allocated once per command execution so a concurrency retry reuses
	// the same policy number.
	var policyNumber string

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

		// Gate before charging: a quote the workflow will not bind must
		// never reach the gateway.
		if !cfg.Workflow.IsActionPermitted(quote.ActionBind, q.State) {
			return quote.NewOperationNotPermittedError(quote.ActionBind, q.State, cfg.Workflow)
		}

		payable := q.LatestCalculation != nil && q.LatestCalculation.Price.TotalPayable > 0
		if payable && !q.IsFunded() {
			if err := h.takePayment(ctx, a, q, attempt, performedBy, now); err != nil {
				return err
			}
			if attempt.declined != nil {
				// Persist the failed attempt; the bind does not happen.
				return nil
			}
		}

		if q.Type == quote.TypeNewBusiness && policyNumber == "" {
			seq, err := h.Numbers.NextPolicyNumber(ctx, a.TenantID, a.ProductID)
			if err != nil {
				return err
			}
			policyNumber = seq
		}
		return a.Bind(quoteID, bindParamsFor(q, a.Policy, cfg, policyNumber, now), performedBy, now, cfg.Workflow)
	})
	if err != nil {
		return nil, err
	}
	if attempt.declined != nil {
		return nil, attempt.declined
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}

// bindParamsFor derives the policy dates for the transaction type. New
// business opens a fresh term from now; a renewal opens the next term from
// the current expiry; adjustments and cancellations take effect now within
// the existing term.
func bindParamsFor(q *quote.Quote, policy *quote.Policy, cfg *product.Configuration, newPolicyNumber string, now time.Time) quote.BindParams {
	if q.Type.IsPolicyTransaction() && policy == nil {
		// Bind rejects this aggregate state; return empty params so it can.
		return quote.BindParams{}
	}
	switch q.Type {
	case quote.TypeRenewal:
		inception := now
		if policy != nil && policy.ExpiryDate.After(now) {
			inception = policy.ExpiryDate
		}
		return quote.BindParams{
			PolicyNumber:  policy.PolicyNumber,
			InceptionDate: inception,
			ExpiryDate:    inception.Add(cfg.Term()),
			EffectiveFrom: inception,
		}
	case quote.TypeAdjustment, quote.TypeCancellation:
		return quote.BindParams{
			PolicyNumber:  policy.PolicyNumber,
			InceptionDate: policy.InceptionDate,
			ExpiryDate:    policy.ExpiryDate,
			EffectiveFrom: now,
		}
	default:
		return quote.BindParams{
			PolicyNumber:  newPolicyNumber,
			InceptionDate: now,
			ExpiryDate:    now.Add(cfg.Term()),
			EffectiveFrom: now,
		}
	}
}
