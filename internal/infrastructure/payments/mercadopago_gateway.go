// Package payments implements the payment gateway port. The Mercado Pago
// adapter translates between the domain's payment request and the provider
// SDK; the circuit breaker wrapper guards the command path against a
// degraded provider.
package payments

import (
	"context"
	"fmt"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/errors"
)

const statusApproved = "approved"

// MercadoPagoGateway charges cards through the Mercado Pago payments API.
type MercadoPagoGateway struct {
	client payment.Client
	logger *zap.Logger
}

func NewMercadoPagoGateway(accessToken string, logger *zap.Logger) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, errors.Internal(errors.CodePaymentConfigAbsent.String(), "mercado pago access token is not configured").Build()
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, errors.Internal(errors.CodeInternalError.String(), "initializing mercado pago sdk").
			WithCause(err).
			Build()
	}
	return &MercadoPagoGateway{client: payment.NewClient(cfg), logger: logger}, nil
}

var _ ports.PaymentGateway = (*MercadoPagoGateway)(nil)

// MakePayment charges the quote's total. A provider decline is a successful
// call with Success=false; only transport and provider faults return errors.
func (g *MercadoPagoGateway) MakePayment(ctx context.Context, req ports.PaymentRequest) (quote.PaymentGatewayResult, error) {
	mpReq := payment.Request{
		TransactionAmount: float64(req.Price.TotalPayable) / 100,
		Token:             req.TokenID,
		Installments:      1,
		Description:       "insurance premium",
		ExternalReference: req.Reference,
	}
	if req.SavedMethodID != "" {
		mpReq.PaymentMethodID = req.SavedMethodID
	}

	resp, err := g.client.Create(ctx, mpReq)
	if err != nil {
		g.logger.Error("mercado pago create failed",
			zap.String("reference", req.Reference),
			zap.Error(err))
		return quote.PaymentGatewayResult{}, err
	}

	result := quote.PaymentGatewayResult{
		Success:   resp.Status == statusApproved,
		Reference: fmt.Sprintf("%d", resp.ID),
		Details:   resp.StatusDetail,
	}
	if !result.Success {
		result.Errors = []string{resp.Status + ": " + resp.StatusDetail}
		g.logger.Info("payment declined",
			zap.String("reference", req.Reference),
			zap.String("status", resp.Status),
			zap.String("statusDetail", resp.StatusDetail))
	}
	return result, nil
}
