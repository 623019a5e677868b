// Package memory provides in-process implementations of the persistence and
// locking ports. They back local development and the test suite; production
// wiring uses the dynamodb package.
package memory

import (
	"context"
	"fmt"
	"sync"

	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/repository"
)

// EventStore keeps event streams in process memory with the same
// optimistic-concurrency contract as the DynamoDB store.
type EventStore struct {
	mu      sync.RWMutex
	streams map[string][]shared.DomainEvent
	index   map[string]shared.AggregateID
}

func NewEventStore() *EventStore {
	return &EventStore{
		streams: make(map[string][]shared.DomainEvent),
		index:   make(map[string]shared.AggregateID),
	}
}

var _ repository.EventStore = (*EventStore)(nil)

func (s *EventStore) SaveEvents(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID, events []shared.DomainEvent, expectedVersion shared.Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := streamKey(tenantID, aggregateID)
	stream := s.streams[key]
	if len(stream) != expectedVersion.Int() {
		return &repository.AggregateVersionError{
			AggregateID:     aggregateID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   shared.Version(len(stream)),
		}
	}
	s.streams[key] = append(stream, events...)

	for _, ev := range events {
		switch e := ev.(type) {
		case *quote.NewBusinessQuoteCreatedEvent:
			s.index[indexKey(tenantID, e.QuoteID)] = aggregateID
		case *quote.TransactionQuoteCreatedEvent:
			s.index[indexKey(tenantID, e.QuoteID)] = aggregateID
		}
	}
	return nil
}

func (s *EventStore) GetEvents(ctx context.Context, tenantID shared.TenantID, aggregateID shared.AggregateID) ([]shared.DomainEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamKey(tenantID, aggregateID)]
	out := make([]shared.DomainEvent, len(stream))
	copy(out, stream)
	return out, nil
}

func (s *EventStore) ResolveAggregateID(ctx context.Context, tenantID shared.TenantID, quoteID shared.QuoteID) (shared.AggregateID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	aggregateID, ok := s.index[indexKey(tenantID, quoteID)]
	if !ok {
		return "", repository.NewQuoteIndexNotFoundError(quoteID)
	}
	return aggregateID, nil
}

func streamKey(tenantID shared.TenantID, aggregateID shared.AggregateID) string {
	return fmt.Sprintf("%s#%s", tenantID, aggregateID)
}

func indexKey(tenantID shared.TenantID, quoteID shared.QuoteID) string {
	return fmt.Sprintf("%s#%s", tenantID, quoteID)
}
