package quote

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestAggregate(t *testing.T) (*Aggregate, shared.QuoteID) {
	t.Helper()
	a, err := CreateNewBusinessQuote(CreateNewBusinessQuoteParams{
		TenantID:         "acme",
		OrganisationID:   "org-1",
		ProductID:        "commercial-property",
		Environment:      shared.EnvironmentProduction,
		ProductReleaseID: "2026-01",
		OwnerUserID:      "broker-1",
		InitialFormData:  FormData{"buildingValue": 1500000.0, "postcode": "2000"},
		PerformingUserID: "broker-1",
		Now:              testNow,
	})
	require.NoError(t, err)
	require.Len(t, a.Quotes, 1)
	var quoteID shared.QuoteID
	for id := range a.Quotes {
		quoteID = id
	}
	return a, quoteID
}

func calculation(total int64) CalculationResult {
	return CalculationResult{
		CalculationID: "calc-1",
		Price: PriceBreakdown{
			Currency:     "AUD",
			BasePremium:  total,
			TotalPayable: total,
		},
		CalculatedAt: testNow,
	}
}

func fundQuote(t *testing.T, a *Aggregate, quoteID shared.QuoteID) {
	t.Helper()
	require.NoError(t, a.RecordPaymentMade(quoteID, PaymentAttemptResult{Reference: "pay-1"}, "broker-1", testNow))
}

func bindNewBusiness(t *testing.T, a *Aggregate, quoteID shared.QuoteID, wf *Workflow) {
	t.Helper()
	require.NoError(t, a.Submit(quoteID, "broker-1", testNow, wf))
	require.NoError(t, a.RecordWorkflowStep(quoteID, ActionAutoApprove, "broker-1", testNow, wf))
	require.NoError(t, a.RecordCalculationResult(quoteID, calculation(120000), "broker-1", testNow))
	fundQuote(t, a, quoteID)
	require.NoError(t, a.Bind(quoteID, BindParams{
		PolicyNumber:  "P000001",
		InceptionDate: testNow,
		ExpiryDate:    testNow.AddDate(1, 0, 0),
		EffectiveFrom: testNow,
	}, "broker-1", testNow, wf))
}

func TestCreateNewBusinessQuote(t *testing.T) {
	a, quoteID := newTestAggregate(t)

	assert.Equal(t, shared.AggregateID(quoteID), a.ID())
	assert.Equal(t, shared.TenantID("acme"), a.TenantID)

	q := a.Quotes[quoteID]
	assert.Equal(t, TypeNewBusiness, q.Type)
	// Seeding initial form data moves the quote straight to incomplete.
	assert.Equal(t, StateIncomplete, q.State)
	assert.Equal(t, FormData{"buildingValue": 1500000.0, "postcode": "2000"}, q.LatestFormData)
	assert.Len(t, a.UncommittedEvents(), 2)
	assert.Equal(t, shared.Version(0), a.Version())
}

func TestCreateNewBusinessQuoteValidation(t *testing.T) {
	_, err := CreateNewBusinessQuote(CreateNewBusinessQuoteParams{
		ProductID:   "commercial-property",
		Environment: shared.EnvironmentProduction,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestFullLifecycleToBound(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()

	bindNewBusiness(t, a, quoteID, wf)

	q := a.Quotes[quoteID]
	assert.Equal(t, StateBound, q.State)
	assert.True(t, q.TransactionCompleted)
	require.NotNil(t, a.Policy)
	assert.Equal(t, "P000001", a.Policy.PolicyNumber)
	assert.Equal(t, PolicyStatusActive, a.Policy.Status)
	require.Len(t, a.Policy.Transactions, 1)
	assert.Equal(t, quoteID, a.Policy.Transactions[0].QuoteID)
}

func TestSubmitRejectedFromNascent(t *testing.T) {
	a, err := CreateNewBusinessQuote(CreateNewBusinessQuoteParams{
		TenantID:         "acme",
		ProductID:        "commercial-property",
		Environment:      shared.EnvironmentProduction,
		PerformingUserID: "broker-1",
		Now:              testNow,
	})
	require.NoError(t, err)
	var quoteID shared.QuoteID
	for id := range a.Quotes {
		quoteID = id
	}

	err = a.Submit(quoteID, "broker-1", testNow, DefaultWorkflow())
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestBindRequiresPaymentWhenPremiumPayable(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()

	require.NoError(t, a.Submit(quoteID, "broker-1", testNow, wf))
	require.NoError(t, a.RecordWorkflowStep(quoteID, ActionAutoApprove, "broker-1", testNow, wf))
	require.NoError(t, a.RecordCalculationResult(quoteID, calculation(80000), "broker-1", testNow))

	err := a.Bind(quoteID, BindParams{PolicyNumber: "P1"}, "broker-1", testNow, wf)
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
	assert.Nil(t, a.Policy)
}

func TestBindWithoutCalculationPermitted(t *testing.T) {
	// A zero-premium quote has nothing to fund.
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()

	require.NoError(t, a.Submit(quoteID, "broker-1", testNow, wf))
	require.NoError(t, a.RecordWorkflowStep(quoteID, ActionAutoApprove, "broker-1", testNow, wf))

	require.NoError(t, a.Bind(quoteID, BindParams{PolicyNumber: "P1", EffectiveFrom: testNow}, "broker-1", testNow, wf))
	assert.NotNil(t, a.Policy)
}

func TestRecordPaymentMadeTwiceRejected(t *testing.T) {
	a, quoteID := newTestAggregate(t)

	fundQuote(t, a, quoteID)
	err := a.RecordPaymentMade(quoteID, PaymentAttemptResult{Reference: "pay-2"}, "broker-1", testNow)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestFailedPaymentDoesNotFund(t *testing.T) {
	a, quoteID := newTestAggregate(t)

	require.NoError(t, a.RecordPaymentFailed(quoteID, PaymentAttemptResult{Errors: []string{"card declined"}}, "broker-1", testNow))

	q := a.Quotes[quoteID]
	assert.False(t, q.IsFunded())
	require.NotNil(t, q.LatestPaymentAttempt)
	assert.False(t, q.LatestPaymentAttempt.Success)

	// A later successful attempt is still permitted.
	fundQuote(t, a, quoteID)
	assert.True(t, q.IsFunded())
}

func TestQuoteNumberAssignedOnce(t *testing.T) {
	a, quoteID := newTestAggregate(t)

	require.NoError(t, a.AssignQuoteNumber(quoteID, "CP-000001", "broker-1", testNow))
	err := a.AssignQuoteNumber(quoteID, "CP-000002", "broker-1", testNow)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, "CP-000001", a.Quotes[quoteID].QuoteNumber)
}

func TestTransactionQuoteRequiresPolicy(t *testing.T) {
	a, _ := newTestAggregate(t)

	_, err := a.CreateAdjustmentQuote(CreateTransactionQuoteParams{
		PerformingUserID: "broker-1",
		Now:              testNow,
		Workflow:         DefaultWorkflow(),
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestSingleActiveTransactionQuote(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()
	bindNewBusiness(t, a, quoteID, wf)

	first, err := a.CreateAdjustmentQuote(CreateTransactionQuoteParams{
		ProductReleaseID: "2026-01",
		InitialFormData:  FormData{"buildingValue": 1600000.0},
		PerformingUserID: "broker-1",
		Now:              testNow,
		Workflow:         wf,
	})
	require.NoError(t, err)

	// A second open transaction quote is rejected without DiscardExisting.
	_, err = a.CreateRenewalQuote(CreateTransactionQuoteParams{
		PerformingUserID: "broker-1",
		Now:              testNow,
		Workflow:         wf,
	})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	// DiscardExisting retires the open quote and admits the new one.
	second, err := a.CreateRenewalQuote(CreateTransactionQuoteParams{
		DiscardExisting:  true,
		PerformingUserID: "broker-1",
		Now:              testNow,
		Workflow:         wf,
	})
	require.NoError(t, err)
	assert.True(t, a.Quotes[first].IsDiscarded)
	assert.Equal(t, second, a.ActiveTransactionQuote().ID)
}

func TestRenewalBindExtendsPolicy(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()
	bindNewBusiness(t, a, quoteID, wf)

	renewalID, err := a.CreateRenewalQuote(CreateTransactionQuoteParams{
		InitialFormData:  FormData{"buildingValue": 1500000.0},
		PerformingUserID: "broker-1",
		Now:              testNow,
		Workflow:         wf,
	})
	require.NoError(t, err)

	require.NoError(t, a.Submit(renewalID, "broker-1", testNow, wf))
	require.NoError(t, a.RecordWorkflowStep(renewalID, ActionAutoApprove, "broker-1", testNow, wf))

	newExpiry := testNow.AddDate(2, 0, 0)
	require.NoError(t, a.Bind(renewalID, BindParams{
		InceptionDate: testNow.AddDate(1, 0, 0),
		ExpiryDate:    newExpiry,
		EffectiveFrom: testNow.AddDate(1, 0, 0),
	}, "broker-1", testNow, wf))

	assert.Equal(t, PolicyStatusRenewed, a.Policy.Status)
	assert.Equal(t, newExpiry, a.Policy.ExpiryDate)
	assert.Len(t, a.Policy.Transactions, 2)
}

func TestCloneForExpiredQuote(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()
	require.NoError(t, a.RecordAssociationWithCustomer("cust-9", "broker-1", testNow))
	require.NoError(t, a.Expire(quoteID, "broker-1", testNow, wf))

	eventsBefore := len(a.UncommittedEvents())

	clone, err := a.CloneForExpiredQuote(quoteID, "2026-02", nil, "broker-1", testNow)
	require.NoError(t, err)

	// The original aggregate is untouched.
	assert.Len(t, a.UncommittedEvents(), eventsBefore)

	assert.NotEqual(t, a.ID(), clone.ID())
	assert.Equal(t, a.TenantID, clone.TenantID)
	assert.Equal(t, shared.CustomerID("cust-9"), clone.CustomerID)
	assert.Equal(t, a.OwnerUserID, clone.OwnerUserID)

	var cloneQuote *Quote
	for _, q := range clone.Quotes {
		cloneQuote = q
	}
	require.NotNil(t, cloneQuote)
	assert.Equal(t, shared.ProductReleaseID("2026-02"), cloneQuote.ProductReleaseID)
	assert.Equal(t, a.Quotes[quoteID].LatestFormData, cloneQuote.LatestFormData)
}

func TestCloneRejectsUnexpiredQuote(t *testing.T) {
	a, quoteID := newTestAggregate(t)

	_, err := a.CloneForExpiredQuote(quoteID, "2026-02", nil, "broker-1", testNow)
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestUpdateFormDataRejectedInTerminalState(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	require.NoError(t, a.Discard(quoteID, "test", "broker-1", testNow, DefaultWorkflow()))

	err := a.UpdateFormData(quoteID, FormData{"buildingValue": 1.0}, nil, "broker-1", testNow)
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestReplayIsDeterministic(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()
	bindNewBusiness(t, a, quoteID, wf)
	require.NoError(t, a.AttachFile(quoteID, AttachedFile{FileID: "file-1", Name: "schedule.pdf", Kind: "policy-schedule"}, "broker-1", testNow))
	require.NoError(t, a.MakeEnquiry(quoteID, "when does cover start?", "broker-1", testNow))
	require.NoError(t, a.RecordOrganisationMigration("org-2", "broker-1", testNow))
	_, err := a.CreateAdjustmentQuote(CreateTransactionQuoteParams{
		InitialFormData:  FormData{"buildingValue": 1750000.0},
		PerformingUserID: "broker-1",
		Now:              testNow,
		Workflow:         wf,
	})
	require.NoError(t, err)

	stream := a.UncommittedEvents()

	replayed, err := ReplayAggregate(stream)
	require.NoError(t, err)
	again, err := ReplayAggregate(stream)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(replayed.Quotes, again.Quotes))
	assert.True(t, reflect.DeepEqual(replayed.Policy, again.Policy))
	assert.Equal(t, shared.Version(len(stream)), replayed.Version())
	assert.Empty(t, replayed.UncommittedEvents())

	// Replayed state matches the live aggregate.
	assert.True(t, reflect.DeepEqual(a.Quotes, replayed.Quotes))
	assert.True(t, reflect.DeepEqual(a.Policy, replayed.Policy))
	assert.Equal(t, shared.OrganisationID("org-2"), replayed.OrganisationID)
	assert.Len(t, replayed.Quotes[quoteID].Files, 1)
}

func TestReplaySurvivesEventSerialization(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()
	bindNewBusiness(t, a, quoteID, wf)
	require.NoError(t, a.AttachFile(quoteID, AttachedFile{FileID: "file-1", Name: "schedule.pdf", Kind: "policy-schedule"}, "broker-1", testNow))
	require.NoError(t, a.MakeEnquiry(quoteID, "when does cover start?", "broker-1", testNow))
	require.NoError(t, a.RecordOrganisationMigration("org-2", "broker-1", testNow))

	// Round-trip every event through the persistence codec before replaying.
	var decoded []shared.DomainEvent
	for _, ev := range a.UncommittedEvents() {
		payload, err := MarshalEvent(ev)
		require.NoError(t, err)
		back, err := UnmarshalEvent(ev.EventType(), payload)
		require.NoError(t, err)
		decoded = append(decoded, back)
	}

	replayed, err := ReplayAggregate(decoded)
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(a.Quotes, replayed.Quotes))
	assert.True(t, reflect.DeepEqual(a.Policy, replayed.Policy))
	assert.Equal(t, shared.OrganisationID("org-2"), replayed.OrganisationID)
}

func TestReplayRejectsEmptyStream(t *testing.T) {
	_, err := ReplayAggregate(nil)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestEventSequencesAreContiguous(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	wf := DefaultWorkflow()
	bindNewBusiness(t, a, quoteID, wf)

	for i, ev := range a.UncommittedEvents() {
		assert.Equal(t, i+1, ev.Sequence())
	}
}

func TestVersionSnapshot(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	require.NoError(t, a.RecordCalculationResult(quoteID, calculation(50000), "broker-1", testNow))

	require.NoError(t, a.CreateVersion(quoteID, "broker-1", testNow))
	require.NoError(t, a.CreateVersion(quoteID, "broker-1", testNow))

	q := a.Quotes[quoteID]
	require.Len(t, q.Versions, 2)
	assert.Equal(t, 1, q.Versions[0].Number)
	assert.Equal(t, 2, q.Versions[1].Number)
	assert.Equal(t, q.LatestFormData, q.Versions[1].FormData)
}

func TestAttachFile(t *testing.T) {
	a, quoteID := newTestAggregate(t)

	require.NoError(t, a.AttachFile(quoteID, AttachedFile{FileID: "file-1", Name: "survey.pdf", Kind: "survey"}, "broker-1", testNow))
	require.NoError(t, a.AttachFile(quoteID, AttachedFile{FileID: "file-2", Name: "photos.zip"}, "broker-1", testNow))

	q := a.Quotes[quoteID]
	require.Len(t, q.Files, 2)
	assert.Equal(t, "file-1", q.Files[0].FileID)
	assert.Equal(t, testNow, q.Files[0].AttachedAt)
	assert.Equal(t, "photos.zip", q.Files[1].Name)
}

func TestAttachFileRejectedOnDiscardedQuote(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	require.NoError(t, a.Discard(quoteID, "test", "broker-1", testNow, DefaultWorkflow()))

	err := a.AttachFile(quoteID, AttachedFile{FileID: "file-1", Name: "survey.pdf"}, "broker-1", testNow)
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
	assert.Empty(t, a.Quotes[quoteID].Files)
}

func TestMakeEnquiry(t *testing.T) {
	a, quoteID := newTestAggregate(t)
	before := len(a.UncommittedEvents())

	require.NoError(t, a.MakeEnquiry(quoteID, "is flood cover included?", "broker-1", testNow))

	events := a.UncommittedEvents()
	require.Len(t, events, before+1)
	ev, ok := events[len(events)-1].(*EnquiryMadeEvent)
	require.True(t, ok)
	assert.Equal(t, quoteID, ev.QuoteID)
	assert.Equal(t, "is flood cover included?", ev.Message)
}

func TestMakeEnquiryRequiresMessage(t *testing.T) {
	a, quoteID := newTestAggregate(t)

	err := a.MakeEnquiry(quoteID, "", "broker-1", testNow)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestOrganisationMigration(t *testing.T) {
	a, _ := newTestAggregate(t)
	require.Equal(t, shared.OrganisationID("org-1"), a.OrganisationID)

	require.NoError(t, a.RecordOrganisationMigration("org-2", "broker-1", testNow))
	assert.Equal(t, shared.OrganisationID("org-2"), a.OrganisationID)

	events := a.UncommittedEvents()
	ev, ok := events[len(events)-1].(*OrganisationMigratedEvent)
	require.True(t, ok)
	assert.Equal(t, shared.OrganisationID("org-1"), ev.FromOrganisationID)
	assert.Equal(t, shared.OrganisationID("org-2"), ev.ToOrganisationID)
}

func TestOrganisationMigrationRequiresTarget(t *testing.T) {
	a, _ := newTestAggregate(t)

	err := a.RecordOrganisationMigration("", "broker-1", testNow)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, shared.OrganisationID("org-1"), a.OrganisationID)
}
