package quote

import (
	"time"

	"coverstack-backend/internal/domain/shared"
)

// Event type names. These are persisted in the event stream and published to
// projection consumers; treat them as a wire contract.
const (
	EventTypeNewBusinessQuoteCreated  = "NewBusinessQuoteCreated"
	EventTypeAdjustmentQuoteCreated   = "AdjustmentQuoteCreated"
	EventTypeRenewalQuoteCreated      = "RenewalQuoteCreated"
	EventTypeCancellationQuoteCreated = "CancellationQuoteCreated"
	EventTypeQuoteFormDataUpdated     = "QuoteFormDataUpdated"
	EventTypeQuoteCalculationRecorded = "QuoteCalculationRecorded"
	EventTypeQuoteSubmitted           = "QuoteSubmitted"
	EventTypeQuoteNumberAssigned      = "QuoteNumberAssigned"
	EventTypeQuoteWorkflowStep        = "QuoteWorkflowStepRecorded"
	EventTypeQuoteDeclined            = "QuoteDeclined"
	EventTypeQuoteExpired             = "QuoteExpired"
	EventTypeQuoteDiscarded           = "QuoteDiscarded"
	EventTypePaymentMade              = "PaymentMade"
	EventTypePaymentFailed            = "PaymentFailed"
	EventTypeQuoteBound               = "QuoteBound"
	EventTypeOwnershipAssigned        = "OwnershipAssigned"
	EventTypeCustomerAssociated       = "CustomerAssociated"
	EventTypeOrganisationMigrated     = "OrganisationMigrated"
	EventTypeFileAttached             = "FileAttached"
	EventTypeEnquiryMade              = "EnquiryMade"
	EventTypeQuoteVersionCreated      = "QuoteVersionCreated"
)

// NewBusinessQuoteCreatedEvent seeds a fresh aggregate with its first quote.
// When the aggregate is cloned from an expired quote, ClonedFromAggregateID
// records the provenance; the original aggregate is untouched.
type NewBusinessQuoteCreatedEvent struct {
	shared.BaseEvent
	TenantID              shared.TenantID         `json:"tenantId"`
	OrganisationID        shared.OrganisationID   `json:"organisationId"`
	ProductID             shared.ProductID        `json:"productId"`
	Environment           shared.Environment      `json:"environment"`
	IsTestData            bool                    `json:"isTestData"`
	QuoteID               shared.QuoteID          `json:"quoteId"`
	ProductReleaseID      shared.ProductReleaseID `json:"productReleaseId"`
	OwnerUserID           shared.UserID           `json:"ownerUserId,omitempty"`
	CustomerID            shared.CustomerID       `json:"customerId,omitempty"`
	InitialFormData       FormData                `json:"initialFormData,omitempty"`
	ExpiresAt             *time.Time              `json:"expiresAt,omitempty"`
	ClonedFromAggregateID shared.AggregateID      `json:"clonedFromAggregateId,omitempty"`
	ClonedFromQuoteID     shared.QuoteID          `json:"clonedFromQuoteId,omitempty"`
}

// TransactionQuoteCreatedEvent adds an adjustment, renewal, or cancellation
// quote to an existing policy's aggregate.
type TransactionQuoteCreatedEvent struct {
	shared.BaseEvent
	QuoteID          shared.QuoteID          `json:"quoteId"`
	QuoteType        Type                    `json:"quoteType"`
	ProductReleaseID shared.ProductReleaseID `json:"productReleaseId"`
	InitialFormData  FormData                `json:"initialFormData,omitempty"`
	ExpiresAt        *time.Time              `json:"expiresAt,omitempty"`
}

type QuoteFormDataUpdatedEvent struct {
	shared.BaseEvent
	QuoteID         shared.QuoteID   `json:"quoteId"`
	FormData        FormData         `json:"formData"`
	CustomerDetails *CustomerDetails `json:"customerDetails,omitempty"`
}

type QuoteCalculationRecordedEvent struct {
	shared.BaseEvent
	QuoteID     shared.QuoteID    `json:"quoteId"`
	Calculation CalculationResult `json:"calculation"`
}

type QuoteSubmittedEvent struct {
	shared.BaseEvent
	QuoteID        shared.QuoteID `json:"quoteId"`
	ResultingState State          `json:"resultingState"`
}

type QuoteNumberAssignedEvent struct {
	shared.BaseEvent
	QuoteID     shared.QuoteID `json:"quoteId"`
	QuoteNumber string         `json:"quoteNumber"`
}

// QuoteWorkflowStepRecordedEvent captures a product-configured workflow
// transition that has no dedicated event type (review and endorsement steps,
// manual workflow step recording).
type QuoteWorkflowStepRecordedEvent struct {
	shared.BaseEvent
	QuoteID        shared.QuoteID `json:"quoteId"`
	Action         Action         `json:"action"`
	FromState      State          `json:"fromState"`
	ResultingState State          `json:"resultingState"`
}

type QuoteDeclinedEvent struct {
	shared.BaseEvent
	QuoteID shared.QuoteID `json:"quoteId"`
	Reason  string         `json:"reason,omitempty"`
}

type QuoteExpiredEvent struct {
	shared.BaseEvent
	QuoteID shared.QuoteID `json:"quoteId"`
}

type QuoteDiscardedEvent struct {
	shared.BaseEvent
	QuoteID shared.QuoteID `json:"quoteId"`
	Reason  string         `json:"reason,omitempty"`
}

type PaymentMadeEvent struct {
	shared.BaseEvent
	QuoteID shared.QuoteID       `json:"quoteId"`
	Result  PaymentAttemptResult `json:"result"`
}

type PaymentFailedEvent struct {
	shared.BaseEvent
	QuoteID shared.QuoteID       `json:"quoteId"`
	Result  PaymentAttemptResult `json:"result"`
}

// QuoteBoundEvent completes a quote. For new business it issues the policy;
// for transaction quotes it appends a policy transaction and completes the
// transaction.
type QuoteBoundEvent struct {
	shared.BaseEvent
	QuoteID       shared.QuoteID `json:"quoteId"`
	PolicyNumber  string         `json:"policyNumber"`
	InceptionDate time.Time      `json:"inceptionDate"`
	ExpiryDate    time.Time      `json:"expiryDate"`
	EffectiveFrom time.Time      `json:"effectiveFrom"`
}

type OwnershipAssignedEvent struct {
	shared.BaseEvent
	OwnerUserID shared.UserID `json:"ownerUserId"`
}

type CustomerAssociatedEvent struct {
	shared.BaseEvent
	CustomerID shared.CustomerID `json:"customerId"`
}

type OrganisationMigratedEvent struct {
	shared.BaseEvent
	FromOrganisationID shared.OrganisationID `json:"fromOrganisationId"`
	ToOrganisationID   shared.OrganisationID `json:"toOrganisationId"`
}

type FileAttachedEvent struct {
	shared.BaseEvent
	QuoteID shared.QuoteID `json:"quoteId"`
	File    AttachedFile   `json:"file"`
}

type EnquiryMadeEvent struct {
	shared.BaseEvent
	QuoteID shared.QuoteID `json:"quoteId"`
	Message string         `json:"message"`
}

type QuoteVersionCreatedEvent struct {
	shared.BaseEvent
	QuoteID  shared.QuoteID  `json:"quoteId"`
	Snapshot VersionSnapshot `json:"snapshot"`
}
