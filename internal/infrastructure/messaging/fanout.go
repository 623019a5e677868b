package messaging

import (
	"context"
	stderrors "errors"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
)

// FanOutPublisher delivers each batch to every target. All targets are
// attempted even when an earlier one fails; errors are joined.
type FanOutPublisher struct {
	targets []ports.EventPublisher
}

func NewFanOutPublisher(targets ...ports.EventPublisher) *FanOutPublisher {
	return &FanOutPublisher{targets: targets}
}

var _ ports.EventPublisher = (*FanOutPublisher)(nil)

func (p *FanOutPublisher) Publish(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error {
	var errs []error
	for _, target := range p.targets {
		if err := target.Publish(ctx, tenantID, events); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
