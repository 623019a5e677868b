package handlers

import (
	"context"
	"time"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// CardPaymentHandler attempts a card payment for a priced quote. The gateway
// call happens inside the aggregate lock and before the save, so no other
// command can observe the quote between charging and recording. Declined
// attempts are recorded and persisted, then surfaced to the caller.
type CardPaymentHandler struct {
	*Deps
}

func NewCardPaymentHandler(deps *Deps) *CardPaymentHandler {
	return &CardPaymentHandler{Deps: deps}
}

func (h *CardPaymentHandler) Handle(ctx context.Context, cmd commands.CardPaymentCommand) (*models.NewQuoteReadModel, error) {
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

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		q, err := a.Quote(quoteID)
		if err != nil {
			return err
		}
		return h.takePayment(ctx, a, q, attempt, performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	// A declined attempt was recorded and saved; report the decline now
	// that it is durable.
	if attempt.declined != nil {
		return nil, attempt.declined
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}

// paymentAttempt carries one command execution's gateway outcome across
// optimistic-concurrency retries. A retry re-records the memoized result
// against freshly loaded state; it never charges the card twice.
type paymentAttempt struct {
	TokenID       string
	SavedMethodID string
	Card          *quote.CardDetails

	result   *quote.PaymentGatewayResult
	declined error
}

// takePayment is the payment step shared by CardPayment and BindPolicy. It
// validates the quote is payable, charges the gateway once, and records the
// outcome. A declined result returns nil so the caller's save persists the
// failure event; the decline error is parked on the attempt for the caller
// to surface after the save.
func (d *Deps) takePayment(ctx context.Context, a *quote.Aggregate, q *quote.Quote, attempt *paymentAttempt, performedBy shared.UserID, now time.Time) error {
	attempt.declined = nil
	if q.IsFunded() {
		return quote.NewPaymentAlreadyMadeError(q.ID)
	}
	if q.LatestCalculation == nil || q.LatestCalculation.Price.TotalPayable <= 0 {
		return errors.Domain(errors.CodePaymentFailed.String(), "quote has no payable premium").
			WithData("quoteId", q.ID.String()).
			Build()
	}
	cfg, err := d.configFor(ctx, a, q)
	if err != nil {
		return err
	}
	if cfg.Payment == nil {
		return errors.Internal(errors.CodePaymentConfigAbsent.String(), "product release has no payment configuration").
			WithData("productReleaseId", q.ProductReleaseID.String()).
			Build()
	}

	if attempt.result == nil {
		res, gwErr := d.Payments.MakePayment(ctx, ports.PaymentRequest{
			Price:         q.LatestCalculation.Price,
			TokenID:       attempt.TokenID,
			SavedMethodID: attempt.SavedMethodID,
			Card:          attempt.Card,
			Reference:     q.ID.String(),
		})
		if gwErr != nil {
			return errors.External(errors.CodePaymentFailed.String(), "payment gateway call failed").
				WithCause(gwErr).
				WithData("quoteId", q.ID.String()).
				Build()
		}
		attempt.result = &res
	}

	if !attempt.result.Success {
		if err := a.RecordPaymentFailed(q.ID, attempt.result.ToAttemptResult(), performedBy, now); err != nil {
			return err
		}
		attempt.declined = errors.Domain(errors.CodePaymentFailed.String(), "payment was declined").
			WithData("quoteId", q.ID.String()).
			WithData("gatewayErrors", attempt.result.Errors).
			Build()
		return nil
	}
	return a.RecordPaymentMade(q.ID, attempt.result.ToAttemptResult(), performedBy, now)
}
