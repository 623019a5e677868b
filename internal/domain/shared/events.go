package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an important business occurrence in the domain.
// Event append order within an aggregate's stream is the authoritative order
// of business meaning: replay order equals causal order.
type DomainEvent interface {
	// EventID returns a unique identifier for this event instance.
	EventID() string

	// EventType returns the type of event (e.g. "QuoteSubmitted").
	EventType() string

	// AggregateID returns the id of the aggregate that emitted this event.
	AggregateID() AggregateID

	// PerformedBy returns the id of the user who triggered this event.
	PerformedBy() UserID

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Sequence returns the stream position of the event (1-based).
	Sequence() int
}

// BaseEvent provides the common fields for all domain events. Concrete events
// embed it and add their own payload fields.
type BaseEvent struct {
	ID          string      `json:"eventId"`
	Type        string      `json:"eventType"`
	Aggregate   AggregateID `json:"aggregateId"`
	User        UserID      `json:"performedBy"`
	OccurredAt  time.Time   `json:"occurredAt"`
	SequenceNum int         `json:"sequence"`
}

func (e BaseEvent) EventID() string          { return e.ID }
func (e BaseEvent) EventType() string        { return e.Type }
func (e BaseEvent) AggregateID() AggregateID { return e.Aggregate }
func (e BaseEvent) PerformedBy() UserID      { return e.User }
func (e BaseEvent) Timestamp() time.Time     { return e.OccurredAt }
func (e BaseEvent) Sequence() int            { return e.SequenceNum }

// NewBaseEvent creates the common event header. The sequence number is
// stamped by the aggregate when the event is applied.
func NewBaseEvent(eventType string, aggregateID AggregateID, performedBy UserID, now time.Time) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Aggregate:  aggregateID,
		User:       performedBy,
		OccurredAt: now,
	}
}

// SequenceSetter is implemented by events whose stream position is assigned
// at append time.
type SequenceSetter interface {
	SetSequence(n int)
}

// SetSequence stamps the stream position onto the event header.
func (e *BaseEvent) SetSequence(n int) { e.SequenceNum = n }

// EventAggregate is implemented by entities that emit domain events.
type EventAggregate interface {
	// UncommittedEvents returns events that have not been persisted yet.
	UncommittedEvents() []DomainEvent

	// MarkEventsCommitted clears the uncommitted events after persistence.
	MarkEventsCommitted()
}
