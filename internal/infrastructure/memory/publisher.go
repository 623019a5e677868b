package memory

import (
	"context"
	"sync"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
)

// EventHandler consumes a batch of published domain events.
type EventHandler interface {
	HandleEvents(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error
}

// Publisher delivers events synchronously to in-process subscribers. Local
// wiring registers the projection layer here so read models update on the
// command path's heels; production wiring uses the EventBridge publisher.
type Publisher struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

var _ ports.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Subscribe(h EventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
}

func (p *Publisher) Publish(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error {
	p.mu.RLock()
	handlers := make([]EventHandler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.RUnlock()

	for _, h := range handlers {
		if err := h.HandleEvents(ctx, tenantID, events); err != nil {
			return err
		}
	}
	return nil
}
