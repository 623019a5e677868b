package quote

import (
	"fmt"
	"time"

	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// AggregateType is the lock-scope type name for quote aggregates.
const AggregateType = "quote"

// Aggregate is the event-sourced root entity. It holds one or more quotes,
// the issued policy once bound, and the workflow state for each quote. Every
// mutating operation validates preconditions against current in-memory state,
// constructs one or more immutable events, applies them through the reducer,
// and records them for persistence. State is never mutated outside the
// reducer, which keeps replay deterministic.
type Aggregate struct {
	shared.BaseAggregateRoot

	TenantID       shared.TenantID
	OrganisationID shared.OrganisationID
	ProductID      shared.ProductID
	Environment    shared.Environment
	IsTestData     bool

	OwnerUserID shared.UserID
	CustomerID  shared.CustomerID

	Quotes map[shared.QuoteID]*Quote
	Policy *Policy
}

// CreateNewBusinessQuoteParams carries everything the new-business factory
// needs. The aggregate id equals the first quote's id.
type CreateNewBusinessQuoteParams struct {
	TenantID         shared.TenantID
	OrganisationID   shared.OrganisationID
	ProductID        shared.ProductID
	Environment      shared.Environment
	IsTestData       bool
	ProductReleaseID shared.ProductReleaseID
	OwnerUserID      shared.UserID
	CustomerID       shared.CustomerID
	InitialFormData  FormData
	ExpiresAt        *time.Time

	PerformingUserID shared.UserID
	Now              time.Time
}

// CreateNewBusinessQuote is the static factory seeding a fresh aggregate with
// its first quote in the nascent state.
func CreateNewBusinessQuote(p CreateNewBusinessQuoteParams) (*Aggregate, error) {
	if p.TenantID == "" {
		return nil, errors.Validation(errors.CodeInvalidInput.String(), "tenant id is required").Build()
	}
	if p.ProductID == "" {
		return nil, errors.Validation(errors.CodeInvalidInput.String(), "product id is required").Build()
	}
	if p.Environment == "" {
		return nil, errors.Validation(errors.CodeInvalidInput.String(), "environment is required").Build()
	}

	quoteID := shared.NewQuoteID()
	aggregateID := shared.AggregateID(quoteID)
	a := newEmptyAggregate(aggregateID)

	created := &NewBusinessQuoteCreatedEvent{
		BaseEvent:        shared.NewBaseEvent(EventTypeNewBusinessQuoteCreated, aggregateID, p.PerformingUserID, p.Now),
		TenantID:         p.TenantID,
		OrganisationID:   p.OrganisationID,
		ProductID:        p.ProductID,
		Environment:      p.Environment,
		IsTestData:       p.IsTestData,
		QuoteID:          quoteID,
		ProductReleaseID: p.ProductReleaseID,
		OwnerUserID:      p.OwnerUserID,
		CustomerID:       p.CustomerID,
		ExpiresAt:        p.ExpiresAt,
	}
	a.raise(created)

	if len(p.InitialFormData) > 0 {
		a.raise(&QuoteFormDataUpdatedEvent{
			BaseEvent: shared.NewBaseEvent(EventTypeQuoteFormDataUpdated, aggregateID, p.PerformingUserID, p.Now),
			QuoteID:   quoteID,
			FormData:  p.InitialFormData.Clone(),
		})
	}
	return a, nil
}

// ReplayAggregate rebuilds an aggregate by replaying its full event stream.
// Replaying the same stream twice yields identical in-memory state.
func ReplayAggregate(events []shared.DomainEvent) (*Aggregate, error) {
	if len(events) == 0 {
		return nil, errors.NotFound(errors.CodeAggregateNotFound.String(), "aggregate has no events").Build()
	}
	first, ok := events[0].(*NewBusinessQuoteCreatedEvent)
	if !ok {
		return nil, errors.Internal(errors.CodeInternalError.String(),
			fmt.Sprintf("event stream does not start with a creation event, got %T", events[0])).Build()
	}
	a := newEmptyAggregate(first.AggregateID())
	for _, ev := range events {
		if err := a.apply(ev); err != nil {
			return nil, err
		}
		a.Replayed()
	}
	return a, nil
}

func newEmptyAggregate(id shared.AggregateID) *Aggregate {
	return &Aggregate{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(id),
		Quotes:            make(map[shared.QuoteID]*Quote),
	}
}

// raise applies the event to in-memory state and tracks it as uncommitted.
// Apply errors here indicate a bug in the raising operation, so they panic
// rather than leak half-applied state.
func (a *Aggregate) raise(ev shared.DomainEvent) {
	a.Record(ev)
	if err := a.apply(ev); err != nil {
		panic(fmt.Sprintf("quote aggregate: applying freshly raised %s: %v", ev.EventType(), err))
	}
}

// Quote returns the quote entity with the given id.
func (a *Aggregate) Quote(quoteID shared.QuoteID) (*Quote, error) {
	q, ok := a.Quotes[quoteID]
	if !ok {
		return nil, NewQuoteNotFoundError(quoteID)
	}
	return q, nil
}

// ActiveTransactionQuote returns the single non-discarded, non-completed
// adjustment, renewal, or cancellation quote, if one exists.
func (a *Aggregate) ActiveTransactionQuote() *Quote {
	for _, q := range a.Quotes {
		if q.Type.IsPolicyTransaction() && q.IsActive() {
			return q
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// UpdateFormData records a new form payload for the quote. From the nascent
// state this moves the quote to incomplete.
func (a *Aggregate) UpdateFormData(quoteID shared.QuoteID, formData FormData, details *CustomerDetails, performedBy shared.UserID, now time.Time) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if q.State.IsTerminal() {
		return errors.Domain(errors.CodeOperationNotPermitted.String(),
			fmt.Sprintf("cannot update form data while the quote is in terminal state %q", q.State)).
			WithData("currentState", q.State.String()).
			Build()
	}
	a.raise(&QuoteFormDataUpdatedEvent{
		BaseEvent:       shared.NewBaseEvent(EventTypeQuoteFormDataUpdated, a.ID(), performedBy, now),
		QuoteID:         quoteID,
		FormData:        formData.Clone(),
		CustomerDetails: details,
	})
	return nil
}

// RecordCalculationResult stores the rating output for the quote.
func (a *Aggregate) RecordCalculationResult(quoteID shared.QuoteID, calc CalculationResult, performedBy shared.UserID, now time.Time) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if q.State.IsTerminal() {
		return errors.Domain(errors.CodeOperationNotPermitted.String(),
			fmt.Sprintf("cannot record a calculation while the quote is in terminal state %q", q.State)).
			WithData("currentState", q.State.String()).
			Build()
	}
	if calc.CalculatedAt.IsZero() {
		calc.CalculatedAt = now
	}
	a.raise(&QuoteCalculationRecordedEvent{
		BaseEvent:   shared.NewBaseEvent(EventTypeQuoteCalculationRecorded, a.ID(), performedBy, now),
		QuoteID:     quoteID,
		Calculation: calc,
	})
	return nil
}

// Submit moves the quote through the workflow's submit transition.
func (a *Aggregate) Submit(quoteID shared.QuoteID, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	resulting, ok := workflow.ResultingState(ActionSubmit, q.State)
	if !ok {
		return NewOperationNotPermittedError(ActionSubmit, q.State, workflow)
	}
	a.raise(&QuoteSubmittedEvent{
		BaseEvent:      shared.NewBaseEvent(EventTypeQuoteSubmitted, a.ID(), performedBy, now),
		QuoteID:        quoteID,
		ResultingState: resulting,
	})
	return nil
}

// AssignQuoteNumber stamps the human-readable reference once.
func (a *Aggregate) AssignQuoteNumber(quoteID shared.QuoteID, number string, performedBy shared.UserID, now time.Time) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if q.QuoteNumber != "" {
		return errors.Conflict(errors.CodeQuoteNumberAssigned.String(), "quote number already assigned").
			WithData("quoteId", quoteID.String()).
			WithData("quoteNumber", q.QuoteNumber).
			Build()
	}
	a.raise(&QuoteNumberAssignedEvent{
		BaseEvent:   shared.NewBaseEvent(EventTypeQuoteNumberAssigned, a.ID(), performedBy, now),
		QuoteID:     quoteID,
		QuoteNumber: number,
	})
	return nil
}

// RecordWorkflowStep performs any product-configured workflow action that has
// no dedicated operation: auto-approval, review and endorsement referrals and
// approvals, return to incomplete.
func (a *Aggregate) RecordWorkflowStep(quoteID shared.QuoteID, action Action, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	resulting, ok := workflow.ResultingState(action, q.State)
	if !ok {
		return NewOperationNotPermittedError(action, q.State, workflow)
	}
	a.raise(&QuoteWorkflowStepRecordedEvent{
		BaseEvent:      shared.NewBaseEvent(EventTypeQuoteWorkflowStep, a.ID(), performedBy, now),
		QuoteID:        quoteID,
		Action:         action,
		FromState:      q.State,
		ResultingState: resulting,
	})
	return nil
}

// ReferForEndorsement sends the quote to an underwriter for endorsement.
func (a *Aggregate) ReferForEndorsement(quoteID shared.QuoteID, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	return a.RecordWorkflowStep(quoteID, ActionReferForEndorsement, performedBy, now, workflow)
}

// ApproveEndorsement approves a previously referred quote.
func (a *Aggregate) ApproveEndorsement(quoteID shared.QuoteID, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	return a.RecordWorkflowStep(quoteID, ActionApproveEndorsement, performedBy, now, workflow)
}

// Decline declines the quote; a terminal transition.
func (a *Aggregate) Decline(quoteID shared.QuoteID, reason string, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if !workflow.IsActionPermitted(ActionDecline, q.State) {
		return NewOperationNotPermittedError(ActionDecline, q.State, workflow)
	}
	a.raise(&QuoteDeclinedEvent{
		BaseEvent: shared.NewBaseEvent(EventTypeQuoteDeclined, a.ID(), performedBy, now),
		QuoteID:   quoteID,
		Reason:    reason,
	})
	return nil
}

// Expire marks the quote expired; a terminal transition.
func (a *Aggregate) Expire(quoteID shared.QuoteID, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if !workflow.IsActionPermitted(ActionExpire, q.State) {
		return NewOperationNotPermittedError(ActionExpire, q.State, workflow)
	}
	a.raise(&QuoteExpiredEvent{
		BaseEvent: shared.NewBaseEvent(EventTypeQuoteExpired, a.ID(), performedBy, now),
		QuoteID:   quoteID,
	})
	return nil
}

// Discard retires the quote without deleting it; the event stream keeps its
// full history.
func (a *Aggregate) Discard(quoteID shared.QuoteID, reason string, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if !workflow.IsActionPermitted(ActionDiscard, q.State) {
		return NewOperationNotPermittedError(ActionDiscard, q.State, workflow)
	}
	a.raise(&QuoteDiscardedEvent{
		BaseEvent: shared.NewBaseEvent(EventTypeQuoteDiscarded, a.ID(), performedBy, now),
		QuoteID:   quoteID,
		Reason:    reason,
	})
	return nil
}

// RecordPaymentMade records a successful payment attempt. The quote must not
// already be funded.
func (a *Aggregate) RecordPaymentMade(quoteID shared.QuoteID, result PaymentAttemptResult, performedBy shared.UserID, now time.Time) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if q.IsFunded() {
		return NewPaymentAlreadyMadeError(quoteID)
	}
	result.Success = true
	result.AttemptedAt = now
	a.raise(&PaymentMadeEvent{
		BaseEvent: shared.NewBaseEvent(EventTypePaymentMade, a.ID(), performedBy, now),
		QuoteID:   quoteID,
		Result:    result,
	})
	return nil
}

// RecordPaymentFailed records a failed payment attempt. Failures are part of
// the audit trail and never transition the quote towards bound.
func (a *Aggregate) RecordPaymentFailed(quoteID shared.QuoteID, result PaymentAttemptResult, performedBy shared.UserID, now time.Time) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if q.IsFunded() {
		return NewPaymentAlreadyMadeError(quoteID)
	}
	result.Success = false
	result.AttemptedAt = now
	a.raise(&PaymentFailedEvent{
		BaseEvent: shared.NewBaseEvent(EventTypePaymentFailed, a.ID(), performedBy, now),
		QuoteID:   quoteID,
		Result:    result,
	})
	return nil
}

// BindParams carries the policy details for the bind transition.
type BindParams struct {
	PolicyNumber  string
	InceptionDate time.Time
	ExpiryDate    time.Time
	EffectiveFrom time.Time
}

// Bind completes the quote and issues the policy (new business) or records a
// policy transaction (adjustment, renewal, cancellation). A quote with a
// priced premium must be funded before it can bind.
func (a *Aggregate) Bind(quoteID shared.QuoteID, p BindParams, performedBy shared.UserID, now time.Time, workflow *Workflow) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if !workflow.IsActionPermitted(ActionBind, q.State) {
		return NewOperationNotPermittedError(ActionBind, q.State, workflow)
	}
	if q.LatestCalculation != nil && q.LatestCalculation.Price.TotalPayable > 0 && !q.IsFunded() {
		return errors.Domain(errors.CodePaymentFailed.String(), "quote must be paid before it can be bound").
			WithData("quoteId", quoteID.String()).
			Build()
	}
	if q.Type == TypeNewBusiness && a.Policy != nil {
		return errors.Conflict(errors.CodeQuoteAlreadyBound.String(), "aggregate already has an issued policy").
			Build()
	}
	if q.Type.IsPolicyTransaction() && a.Policy == nil {
		return NewPolicyRequiredError(a.ID())
	}
	a.raise(&QuoteBoundEvent{
		BaseEvent:     shared.NewBaseEvent(EventTypeQuoteBound, a.ID(), performedBy, now),
		QuoteID:       quoteID,
		PolicyNumber:  p.PolicyNumber,
		InceptionDate: p.InceptionDate,
		ExpiryDate:    p.ExpiryDate,
		EffectiveFrom: p.EffectiveFrom,
	})
	return nil
}

// CreateTransactionQuoteParams carries the inputs shared by adjustment,
// renewal, and cancellation quote creation.
type CreateTransactionQuoteParams struct {
	ProductReleaseID shared.ProductReleaseID
	InitialFormData  FormData
	ExpiresAt        *time.Time
	DiscardExisting  bool

	PerformingUserID shared.UserID
	Now              time.Time
	Workflow         *Workflow
}

// CreateAdjustmentQuote adds an adjustment quote to the policy's aggregate.
func (a *Aggregate) CreateAdjustmentQuote(p CreateTransactionQuoteParams) (shared.QuoteID, error) {
	return a.createTransactionQuote(TypeAdjustment, p)
}

// CreateRenewalQuote adds a renewal quote to the policy's aggregate.
func (a *Aggregate) CreateRenewalQuote(p CreateTransactionQuoteParams) (shared.QuoteID, error) {
	return a.createTransactionQuote(TypeRenewal, p)
}

// CreateCancellationQuote adds a cancellation quote to the policy's aggregate.
func (a *Aggregate) CreateCancellationQuote(p CreateTransactionQuoteParams) (shared.QuoteID, error) {
	return a.createTransactionQuote(TypeCancellation, p)
}

// createTransactionQuote enforces the single-active-transaction-quote
// invariant: when an earlier adjustment, renewal, or cancellation quote is
// still open, the caller must either ask for it to be discarded or the
// creation is rejected.
func (a *Aggregate) createTransactionQuote(t Type, p CreateTransactionQuoteParams) (shared.QuoteID, error) {
	if a.Policy == nil {
		return "", NewPolicyRequiredError(a.ID())
	}
	if existing := a.ActiveTransactionQuote(); existing != nil {
		if !p.DiscardExisting {
			return "", NewActiveTransactionQuoteError(existing.ID, existing.Type)
		}
		if err := a.Discard(existing.ID, "superseded by new "+t.String()+" quote", p.PerformingUserID, p.Now, p.Workflow); err != nil {
			return "", err
		}
	}
	eventType := map[Type]string{
		TypeAdjustment:   EventTypeAdjustmentQuoteCreated,
		TypeRenewal:      EventTypeRenewalQuoteCreated,
		TypeCancellation: EventTypeCancellationQuoteCreated,
	}[t]
	quoteID := shared.NewQuoteID()
	a.raise(&TransactionQuoteCreatedEvent{
		BaseEvent:        shared.NewBaseEvent(eventType, a.ID(), p.PerformingUserID, p.Now),
		QuoteID:          quoteID,
		QuoteType:        t,
		ProductReleaseID: p.ProductReleaseID,
		InitialFormData:  p.InitialFormData.Clone(),
		ExpiresAt:        p.ExpiresAt,
	})
	return quoteID, nil
}

// CloneForExpiredQuote creates a brand new aggregate from an expired
// new-business quote, inheriting customer association, owner, and the last
// form data. The original aggregate is not touched.
func (a *Aggregate) CloneForExpiredQuote(quoteID shared.QuoteID, releaseID shared.ProductReleaseID, expiresAt *time.Time, performedBy shared.UserID, now time.Time) (*Aggregate, error) {
	q, err := a.Quote(quoteID)
	if err != nil {
		return nil, err
	}
	if !q.IsExpired(now) {
		return nil, NewQuoteNotExpiredError(quoteID, q.State)
	}
	newQuoteID := shared.NewQuoteID()
	newAggregateID := shared.AggregateID(newQuoteID)
	clone := newEmptyAggregate(newAggregateID)
	clone.raise(&NewBusinessQuoteCreatedEvent{
		BaseEvent:             shared.NewBaseEvent(EventTypeNewBusinessQuoteCreated, newAggregateID, performedBy, now),
		TenantID:              a.TenantID,
		OrganisationID:        a.OrganisationID,
		ProductID:             a.ProductID,
		Environment:           a.Environment,
		IsTestData:            a.IsTestData,
		QuoteID:               newQuoteID,
		ProductReleaseID:      releaseID,
		OwnerUserID:           a.OwnerUserID,
		CustomerID:            a.CustomerID,
		ExpiresAt:             expiresAt,
		ClonedFromAggregateID: a.ID(),
		ClonedFromQuoteID:     quoteID,
	})
	if len(q.LatestFormData) > 0 {
		clone.raise(&QuoteFormDataUpdatedEvent{
			BaseEvent:       shared.NewBaseEvent(EventTypeQuoteFormDataUpdated, newAggregateID, performedBy, now),
			QuoteID:         newQuoteID,
			FormData:        q.LatestFormData.Clone(),
			CustomerDetails: q.LatestCustomerDetails,
		})
	}
	return clone, nil
}

// AssignToOwner records a new owning user for the aggregate.
func (a *Aggregate) AssignToOwner(ownerUserID shared.UserID, performedBy shared.UserID, now time.Time) error {
	if ownerUserID.IsZero() {
		return errors.Validation(errors.CodeInvalidInput.String(), "owner user id is required").Build()
	}
	a.raise(&OwnershipAssignedEvent{
		BaseEvent:   shared.NewBaseEvent(EventTypeOwnershipAssigned, a.ID(), performedBy, now),
		OwnerUserID: ownerUserID,
	})
	return nil
}

// RecordAssociationWithCustomer links the aggregate to a customer record.
func (a *Aggregate) RecordAssociationWithCustomer(customerID shared.CustomerID, performedBy shared.UserID, now time.Time) error {
	if customerID.IsZero() {
		return errors.Validation(errors.CodeInvalidInput.String(), "customer id is required").Build()
	}
	a.raise(&CustomerAssociatedEvent{
		BaseEvent:  shared.NewBaseEvent(EventTypeCustomerAssociated, a.ID(), performedBy, now),
		CustomerID: customerID,
	})
	return nil
}

// RecordOrganisationMigration moves the aggregate to another organisation.
// Administrative jobs invoke this outside the usual command path, which is
// why the repository keeps the optimistic version check as a second line of
// defense behind the lock.
func (a *Aggregate) RecordOrganisationMigration(toOrganisationID shared.OrganisationID, performedBy shared.UserID, now time.Time) error {
	if toOrganisationID == "" {
		return errors.Validation(errors.CodeInvalidInput.String(), "organisation id is required").Build()
	}
	a.raise(&OrganisationMigratedEvent{
		BaseEvent:          shared.NewBaseEvent(EventTypeOrganisationMigrated, a.ID(), performedBy, now),
		FromOrganisationID: a.OrganisationID,
		ToOrganisationID:   toOrganisationID,
	})
	return nil
}

// AttachFile records a file against the quote.
func (a *Aggregate) AttachFile(quoteID shared.QuoteID, file AttachedFile, performedBy shared.UserID, now time.Time) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	if q.IsDiscarded {
		return errors.Domain(errors.CodeQuoteAlreadyDiscarded.String(), "cannot attach a file to a discarded quote").
			WithData("quoteId", quoteID.String()).
			Build()
	}
	file.AttachedAt = now
	a.raise(&FileAttachedEvent{
		BaseEvent: shared.NewBaseEvent(EventTypeFileAttached, a.ID(), performedBy, now),
		QuoteID:   quoteID,
		File:      file,
	})
	return nil
}

// MakeEnquiry records a customer enquiry against the quote.
func (a *Aggregate) MakeEnquiry(quoteID shared.QuoteID, message string, performedBy shared.UserID, now time.Time) error {
	if _, err := a.Quote(quoteID); err != nil {
		return err
	}
	if message == "" {
		return errors.Validation(errors.CodeInvalidInput.String(), "enquiry message is required").Build()
	}
	a.raise(&EnquiryMadeEvent{
		BaseEvent: shared.NewBaseEvent(EventTypeEnquiryMade, a.ID(), performedBy, now),
		QuoteID:   quoteID,
		Message:   message,
	})
	return nil
}

// CreateVersion snapshots the quote's current form data and calculation.
func (a *Aggregate) CreateVersion(quoteID shared.QuoteID, performedBy shared.UserID, now time.Time) error {
	q, err := a.Quote(quoteID)
	if err != nil {
		return err
	}
	snapshot := VersionSnapshot{
		Number:      len(q.Versions) + 1,
		FormData:    q.LatestFormData.Clone(),
		Calculation: q.LatestCalculation,
		CreatedAt:   now,
	}
	a.raise(&QuoteVersionCreatedEvent{
		BaseEvent: shared.NewBaseEvent(EventTypeQuoteVersionCreated, a.ID(), performedBy, now),
		QuoteID:   quoteID,
		Snapshot:  snapshot,
	})
	return nil
}

// ---------------------------------------------------------------------------
// Reducer
// ---------------------------------------------------------------------------

// apply is the single reducer mutating aggregate state from an event. Both
// live operations and replay go through it.
func (a *Aggregate) apply(event shared.DomainEvent) error {
	switch ev := event.(type) {
	case *NewBusinessQuoteCreatedEvent:
		a.TenantID = ev.TenantID
		a.OrganisationID = ev.OrganisationID
		a.ProductID = ev.ProductID
		a.Environment = ev.Environment
		a.IsTestData = ev.IsTestData
		a.OwnerUserID = ev.OwnerUserID
		a.CustomerID = ev.CustomerID
		a.Quotes[ev.QuoteID] = &Quote{
			ID:               ev.QuoteID,
			Type:             TypeNewBusiness,
			ProductReleaseID: ev.ProductReleaseID,
			State:            StateNascent,
			CreatedAt:        ev.Timestamp(),
			ExpiresAt:        ev.ExpiresAt,
		}

	case *TransactionQuoteCreatedEvent:
		q := &Quote{
			ID:               ev.QuoteID,
			Type:             ev.QuoteType,
			ProductReleaseID: ev.ProductReleaseID,
			State:            StateNascent,
			CreatedAt:        ev.Timestamp(),
			ExpiresAt:        ev.ExpiresAt,
		}
		if len(ev.InitialFormData) > 0 {
			q.LatestFormData = ev.InitialFormData.Clone()
			q.State = StateIncomplete
		}
		a.Quotes[ev.QuoteID] = q

	case *QuoteFormDataUpdatedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.LatestFormData = ev.FormData.Clone()
		if ev.CustomerDetails != nil {
			q.LatestCustomerDetails = ev.CustomerDetails
		}
		if q.State == StateNascent {
			q.State = StateIncomplete
		}

	case *QuoteCalculationRecordedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		calc := ev.Calculation
		q.LatestCalculation = &calc

	case *QuoteSubmittedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.State = ev.ResultingState

	case *QuoteNumberAssignedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.QuoteNumber = ev.QuoteNumber

	case *QuoteWorkflowStepRecordedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.State = ev.ResultingState

	case *QuoteDeclinedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.State = StateDeclined

	case *QuoteExpiredEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.State = StateExpired

	case *QuoteDiscardedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.State = StateDiscarded
		q.IsDiscarded = true

	case *PaymentMadeEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		result := ev.Result
		q.LatestPaymentAttempt = &result

	case *PaymentFailedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		result := ev.Result
		q.LatestPaymentAttempt = &result

	case *QuoteBoundEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.State = StateBound
		q.TransactionCompleted = true
		transaction := PolicyTransaction{
			QuoteID:       ev.QuoteID,
			QuoteType:     q.Type,
			EffectiveFrom: ev.EffectiveFrom,
			RecordedAt:    ev.Timestamp(),
		}
		switch q.Type {
		case TypeNewBusiness:
			a.Policy = &Policy{
				PolicyNumber:  ev.PolicyNumber,
				Status:        PolicyStatusActive,
				InceptionDate: ev.InceptionDate,
				ExpiryDate:    ev.ExpiryDate,
				Transactions:  []PolicyTransaction{transaction},
				IssuedAt:      ev.Timestamp(),
			}
		case TypeAdjustment:
			a.Policy.Transactions = append(a.Policy.Transactions, transaction)
			a.Policy.Status = PolicyStatusAdjusted
		case TypeRenewal:
			a.Policy.Transactions = append(a.Policy.Transactions, transaction)
			a.Policy.Status = PolicyStatusRenewed
			a.Policy.ExpiryDate = ev.ExpiryDate
		case TypeCancellation:
			a.Policy.Transactions = append(a.Policy.Transactions, transaction)
			a.Policy.Status = PolicyStatusCancelled
		}

	case *OwnershipAssignedEvent:
		a.OwnerUserID = ev.OwnerUserID

	case *CustomerAssociatedEvent:
		a.CustomerID = ev.CustomerID

	case *OrganisationMigratedEvent:
		a.OrganisationID = ev.ToOrganisationID

	case *FileAttachedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.Files = append(q.Files, ev.File)

	case *EnquiryMadeEvent:
		// Enquiries are projected into read models; no aggregate state change.

	case *QuoteVersionCreatedEvent:
		q, err := a.Quote(ev.QuoteID)
		if err != nil {
			return err
		}
		q.Versions = append(q.Versions, ev.Snapshot)

	default:
		return errors.Internal(errors.CodeInternalError.String(),
			fmt.Sprintf("unknown event type %T in quote aggregate stream", event)).Build()
	}
	return nil
}
