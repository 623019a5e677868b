package shared

// AggregateRoot is the root entity of a consistency boundary. State changes
// only ever happen by applying events; the persisted event stream is the
// source of truth and the in-memory state is a replayable projection of it.
type AggregateRoot interface {
	// ID returns the unique identifier of the aggregate.
	ID() AggregateID

	// Version returns the persisted version for optimistic concurrency. It
	// reflects the number of committed events, not uncommitted ones.
	Version() Version

	EventAggregate
}

// BaseAggregateRoot provides event tracking and versioning for aggregates.
type BaseAggregateRoot struct {
	id      AggregateID
	version Version
	pending []DomainEvent
}

func NewBaseAggregateRoot(id AggregateID) BaseAggregateRoot {
	return BaseAggregateRoot{id: id}
}

func (a *BaseAggregateRoot) ID() AggregateID { return a.id }

func (a *BaseAggregateRoot) Version() Version { return a.version }

// UncommittedEvents returns events appended since the last save.
func (a *BaseAggregateRoot) UncommittedEvents() []DomainEvent {
	return a.pending
}

// MarkEventsCommitted advances the persisted version past the pending events
// and clears them. Called by the repository after a successful append.
func (a *BaseAggregateRoot) MarkEventsCommitted() {
	a.version += Version(len(a.pending))
	a.pending = nil
}

// Record stamps the event's stream position and tracks it as uncommitted.
// The aggregate must apply the event to its state before or after recording;
// Record itself never mutates domain state.
func (a *BaseAggregateRoot) Record(event DomainEvent) {
	if s, ok := event.(SequenceSetter); ok {
		s.SetSequence(a.version.Int() + len(a.pending) + 1)
	}
	a.pending = append(a.pending, event)
}

// Replayed advances the persisted version during event replay.
func (a *BaseAggregateRoot) Replayed() {
	a.version++
}
