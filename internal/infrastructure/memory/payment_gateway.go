package memory

import (
	"context"

	"github.com/google/uuid"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/quote"
)

// PaymentGateway approves every payment. Local development only.
type PaymentGateway struct{}

func NewPaymentGateway() *PaymentGateway { return &PaymentGateway{} }

func (*PaymentGateway) MakePayment(_ context.Context, _ ports.PaymentRequest) (quote.PaymentGatewayResult, error) {
	return quote.PaymentGatewayResult{
		Success:   true,
		Reference: "local-" + uuid.NewString(),
		Details:   "approved",
	}, nil
}
