package payments

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/errors"
	"coverstack-backend/internal/observability"
)

// CircuitBreakerGateway trips open after repeated provider faults so a
// degraded gateway sheds load fast instead of holding aggregate locks for
// the full provider timeout. Declines do not count as faults; only transport
// and provider errors do.
type CircuitBreakerGateway struct {
	inner   ports.PaymentGateway
	breaker *gobreaker.CircuitBreaker
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewCircuitBreakerGateway(inner ports.PaymentGateway, metrics *observability.Metrics, logger *zap.Logger) *CircuitBreakerGateway {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("payment gateway circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &CircuitBreakerGateway{inner: inner, breaker: breaker, metrics: metrics, logger: logger}
}

var _ ports.PaymentGateway = (*CircuitBreakerGateway)(nil)

func (g *CircuitBreakerGateway) MakePayment(ctx context.Context, req ports.PaymentRequest) (quote.PaymentGatewayResult, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.MakePayment(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return quote.PaymentGatewayResult{}, errors.External(errors.CodePaymentFailed.String(), "payment gateway is unavailable").
				WithRetryable(30 * time.Second).
				WithCause(err).
				Build()
		}
		return quote.PaymentGatewayResult{}, err
	}
	result := out.(quote.PaymentGatewayResult)
	if g.metrics != nil {
		g.metrics.RecordPayment(result.Success)
	}
	return result, nil
}
