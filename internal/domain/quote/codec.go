package quote

import (
	"encoding/json"
	"fmt"

	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

var eventFactories = map[string]func() shared.DomainEvent{
	EventTypeNewBusinessQuoteCreated:  func() shared.DomainEvent { return &NewBusinessQuoteCreatedEvent{} },
	EventTypeAdjustmentQuoteCreated:   func() shared.DomainEvent { return &TransactionQuoteCreatedEvent{} },
	EventTypeRenewalQuoteCreated:      func() shared.DomainEvent { return &TransactionQuoteCreatedEvent{} },
	EventTypeCancellationQuoteCreated: func() shared.DomainEvent { return &TransactionQuoteCreatedEvent{} },
	EventTypeQuoteFormDataUpdated:     func() shared.DomainEvent { return &QuoteFormDataUpdatedEvent{} },
	EventTypeQuoteCalculationRecorded: func() shared.DomainEvent { return &QuoteCalculationRecordedEvent{} },
	EventTypeQuoteSubmitted:           func() shared.DomainEvent { return &QuoteSubmittedEvent{} },
	EventTypeQuoteNumberAssigned:      func() shared.DomainEvent { return &QuoteNumberAssignedEvent{} },
	EventTypeQuoteWorkflowStep:        func() shared.DomainEvent { return &QuoteWorkflowStepRecordedEvent{} },
	EventTypeQuoteDeclined:            func() shared.DomainEvent { return &QuoteDeclinedEvent{} },
	EventTypeQuoteExpired:             func() shared.DomainEvent { return &QuoteExpiredEvent{} },
	EventTypeQuoteDiscarded:           func() shared.DomainEvent { return &QuoteDiscardedEvent{} },
	EventTypePaymentMade:              func() shared.DomainEvent { return &PaymentMadeEvent{} },
	EventTypePaymentFailed:            func() shared.DomainEvent { return &PaymentFailedEvent{} },
	EventTypeQuoteBound:               func() shared.DomainEvent { return &QuoteBoundEvent{} },
	EventTypeOwnershipAssigned:        func() shared.DomainEvent { return &OwnershipAssignedEvent{} },
	EventTypeCustomerAssociated:       func() shared.DomainEvent { return &CustomerAssociatedEvent{} },
	EventTypeOrganisationMigrated:     func() shared.DomainEvent { return &OrganisationMigratedEvent{} },
	EventTypeFileAttached:             func() shared.DomainEvent { return &FileAttachedEvent{} },
	EventTypeEnquiryMade:              func() shared.DomainEvent { return &EnquiryMadeEvent{} },
	EventTypeQuoteVersionCreated:      func() shared.DomainEvent { return &QuoteVersionCreatedEvent{} },
}

// MarshalEvent serializes an event payload for persistence or publishing.
func MarshalEvent(ev shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Internal(errors.CodeInternalError.String(),
			fmt.Sprintf("marshaling %s event", ev.EventType())).
			WithCause(err).
			Build()
	}
	return payload, nil
}

// UnmarshalEvent reconstructs the concrete event for a persisted payload.
// Unknown event types fail loudly: a stream readable only in part is a
// deployment-ordering defect, not something to skip over.
func UnmarshalEvent(eventType string, payload []byte) (shared.DomainEvent, error) {
	factory, ok := eventFactories[eventType]
	if !ok {
		return nil, errors.Internal(errors.CodeInternalError.String(), "unknown event type in stream").
			WithData("eventType", eventType).
			Build()
	}
	ev := factory()
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, errors.Internal(errors.CodeInternalError.String(),
			fmt.Sprintf("unmarshaling %s event", eventType)).
			WithCause(err).
			Build()
	}
	return ev, nil
}
