package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/application/projections"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/product"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
	"coverstack-backend/internal/infrastructure/memory"
	"coverstack-backend/internal/repository"
)

var handlerTestNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testClock is a mutable clock shared by a fixture's handlers.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type staticConfigProvider struct {
	cfg *product.Configuration
}

func (p staticConfigProvider) GetProductConfiguration(context.Context, shared.ReleaseContext, product.FormType) (*product.Configuration, error) {
	return p.cfg, nil
}

func (p staticConfigProvider) GetFormDataSchema(context.Context, shared.ReleaseContext, product.FormType) (product.FormSchema, error) {
	return product.FormSchema{}, nil
}

type staticReleaseService struct{}

func (staticReleaseService) ResolveReleaseID(_ context.Context, _ shared.TenantID, _ shared.ProductID, _ shared.Environment, override shared.ProductReleaseID) (shared.ProductReleaseID, error) {
	if override != "" {
		return override, nil
	}
	return "2026-01", nil
}

// scriptedRatings returns whatever the test last configured.
type scriptedRatings struct {
	mu     sync.Mutex
	result quote.CalculationResult
	err    error
}

func (r *scriptedRatings) set(result quote.CalculationResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = result
	r.err = err
}

func (r *scriptedRatings) Calculate(context.Context, shared.ReleaseContext, quote.FormData) (quote.CalculationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}

// scriptedGateway counts charges and pops scripted results; with nothing
// scripted it approves.
type scriptedGateway struct {
	mu    sync.Mutex
	calls int
	queue []quote.PaymentGatewayResult
	err   error
}

func (g *scriptedGateway) script(results ...quote.PaymentGatewayResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue = append(g.queue, results...)
}

func (g *scriptedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *scriptedGateway) MakePayment(_ context.Context, _ ports.PaymentRequest) (quote.PaymentGatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return quote.PaymentGatewayResult{}, g.err
	}
	if len(g.queue) > 0 {
		res := g.queue[0]
		g.queue = g.queue[1:]
		return res, nil
	}
	return quote.PaymentGatewayResult{Success: true, Reference: uuid.NewString(), Details: "approved"}, nil
}

func testProductConfiguration() *product.Configuration {
	return &product.Configuration{
		ProductName:       "Commercial Property",
		QuoteNumberPrefix: "CP-",
		QuoteExpiry:       30 * 24 * time.Hour,
		PolicyTerm:        365 * 24 * time.Hour,
		Workflow:          quote.DefaultWorkflow(),
		Payment:           &product.PaymentConfiguration{Gateway: "test", Currency: "AUD"},
	}
}

type fixture struct {
	deps    *Deps
	views   *memory.ReadModelRepository
	gateway *scriptedGateway
	ratings *scriptedRatings
	clock   *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewEventStore()
	repo := repository.NewQuoteAggregateRepository(store, logger)
	views := memory.NewReadModelRepository()
	publisher := memory.NewPublisher()
	publisher.Subscribe(projections.NewQuoteProjector(repo, views, logger))

	gateway := &scriptedGateway{}
	ratings := &scriptedRatings{}
	clock := &testClock{now: handlerTestNow}

	deps := &Deps{
		Repo:  repo,
		Locks: memory.NewLockService(2 * time.Second),
		Retry: repository.RetryConfig{
			MaxAttempts:   3,
			BaseDelay:     time.Millisecond,
			MaxDelay:      5 * time.Millisecond,
			BackoffFactor: 2.0,
		},
		Clock:     clock,
		Identity:  shared.NewContextIdentityProvider(),
		Publisher: publisher,
		Config:    staticConfigProvider{cfg: testProductConfiguration()},
		Releases:  staticReleaseService{},
		Numbers:   memory.NewNumberGenerator(),
		Payments:  gateway,
		Ratings:   ratings,
		Logger:    logger,
	}
	return &fixture{deps: deps, views: views, gateway: gateway, ratings: ratings, clock: clock}
}

func testContext() context.Context {
	return shared.WithPerformingUser(context.Background(), shared.UserID("user-1"))
}

func pricedCalculation(total int64, triggers ...string) quote.CalculationResult {
	return quote.CalculationResult{
		CalculationID: uuid.NewString(),
		Triggers:      triggers,
		Price: quote.PriceBreakdown{
			Currency:     "AUD",
			BasePremium:  total,
			TotalPayable: total,
		},
	}
}

func (f *fixture) createQuote(ctx context.Context, t *testing.T, formData quote.FormData) *models.NewQuoteReadModel {
	t.Helper()
	rm, err := NewCreateNewBusinessQuoteHandler(f.deps).Handle(ctx, commands.CreateNewBusinessQuoteCommand{
		TenantID:        "acme",
		ProductID:       "commercial-property",
		Environment:     "development",
		InitialFormData: formData,
	})
	require.NoError(t, err)
	return rm
}

func (f *fixture) approvedQuote(ctx context.Context, t *testing.T, total int64) *models.NewQuoteReadModel {
	t.Helper()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 1500000.0, "postcode": "2000"})
	f.ratings.set(pricedCalculation(total), nil)
	_, err := NewCalculateQuoteHandler(f.deps).Handle(ctx, commands.CalculateQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	rm, err := NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	require.Equal(t, quote.StateAutoApproved.String(), rm.State)
	return rm
}

func (f *fixture) boundQuote(ctx context.Context, t *testing.T) *models.NewQuoteReadModel {
	t.Helper()
	approved := f.approvedQuote(ctx, t, 125000)
	rm, err := NewBindPolicyHandler(f.deps).Handle(ctx, commands.BindPolicyCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
	})
	require.NoError(t, err)
	require.Equal(t, quote.StateBound.String(), rm.State)
	return rm
}

func TestCreateNewBusinessQuoteProjectsView(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()

	rm := f.createQuote(ctx, t, quote.FormData{"buildingValue": 1500000.0})

	assert.Equal(t, quote.TypeNewBusiness.String(), rm.Type)
	assert.Equal(t, quote.StateIncomplete.String(), rm.State)
	assert.Equal(t, "acme", rm.TenantID)
	assert.Equal(t, "2026-01", rm.ProductReleaseID)
	assert.Equal(t, "user-1", rm.OwnerUserID)
	assert.Equal(t, 2, rm.Version)

	view, err := f.views.GetQuote(ctx, "acme", rm.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, rm.State, view.State)
	assert.Equal(t, rm.AggregateID, view.AggregateID)
}

func TestCreateNewBusinessQuoteWithoutFormDataStartsNascent(t *testing.T) {
	f := newFixture(t)

	rm := f.createQuote(testContext(), t, nil)

	assert.Equal(t, quote.StateNascent.String(), rm.State)
	assert.Equal(t, 1, rm.Version)
}

func TestSubmitAssignsQuoteNumberOnce(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	rm, err := NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.Equal(t, "CP-Q000001", rm.QuoteNumber)
	assert.Equal(t, quote.StateComplete.String(), rm.State)

	_, err = NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestSubmitAutoApprovesWithoutTriggers(t *testing.T) {
	f := newFixture(t)
	rm := f.approvedQuote(testContext(), t, 125000)

	assert.Equal(t, quote.StateAutoApproved.String(), rm.State)
	assert.Equal(t, "CP-Q000001", rm.QuoteNumber)
	assert.Equal(t, int64(125000), rm.TotalPayable)
	assert.Equal(t, "AUD", rm.Currency)
}

func TestSubmitRefersForReviewOnTriggers(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 9000000.0})

	f.ratings.set(pricedCalculation(780000, "highSumInsured"), nil)
	_, err := NewCalculateQuoteHandler(f.deps).Handle(ctx, commands.CalculateQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)

	rm, err := NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateReviewReferred.String(), rm.State)
}

func TestCalculateRecordsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	f.ratings.set(pricedCalculation(54321), nil)
	rm, err := NewCalculateQuoteHandler(f.deps).Handle(ctx, commands.CalculateQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(54321), rm.TotalPayable)
	assert.Equal(t, "AUD", rm.Currency)
	assert.False(t, rm.IsFunded)
}

func TestCardPaymentChargesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	approved := f.approvedQuote(ctx, t, 125000)

	rm, err := NewCardPaymentHandler(f.deps).Handle(ctx, commands.CardPaymentCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
	})
	require.NoError(t, err)
	assert.True(t, rm.IsFunded)
	assert.Equal(t, 1, f.gateway.Calls())

	_, err = NewCardPaymentHandler(f.deps).Handle(ctx, commands.CardPaymentCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-2",
	})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, 1, f.gateway.Calls())
}

func TestCardPaymentDeclineIsPersistedThenSurfaced(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	approved := f.approvedQuote(ctx, t, 125000)

	f.gateway.script(quote.PaymentGatewayResult{Success: false, Details: "insufficient funds"})
	_, err := NewCardPaymentHandler(f.deps).Handle(ctx, commands.CardPaymentCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))

	// The failed attempt is durable despite the surfaced error.
	quoteID, parseErr := shared.ParseQuoteID(approved.QuoteID)
	require.NoError(t, parseErr)
	a, loadErr := f.deps.Repo.GetByQuoteID(ctx, "acme", quoteID)
	require.NoError(t, loadErr)
	q, quoteErr := a.Quote(quoteID)
	require.NoError(t, quoteErr)
	require.NotNil(t, q.LatestPaymentAttempt)
	assert.False(t, q.LatestPaymentAttempt.Success)
	assert.False(t, q.IsFunded())

	// A later attempt may still succeed.
	rm, err := NewCardPaymentHandler(f.deps).Handle(ctx, commands.CardPaymentCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
	})
	require.NoError(t, err)
	assert.True(t, rm.IsFunded)
	assert.Equal(t, 2, f.gateway.Calls())
}

func TestCardPaymentRejectsUnpricedQuote(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	_, err := NewCardPaymentHandler(f.deps).Handle(ctx, commands.CardPaymentCommand{
		TenantID: "acme", QuoteID: created.QuoteID, TokenID: "tok-1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
	assert.Equal(t, 0, f.gateway.Calls())
}

func TestConcurrentCardPaymentsChargeExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	approved := f.approvedQuote(ctx, t, 125000)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = NewCardPaymentHandler(f.deps).Handle(ctx, commands.CardPaymentCommand{
				TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.gateway.Calls())
	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.IsConflict(err):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
}

func TestBindPolicyPaysThenBinds(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	approved := f.approvedQuote(ctx, t, 125000)

	rm, err := NewBindPolicyHandler(f.deps).Handle(ctx, commands.BindPolicyCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateBound.String(), rm.State)
	assert.Equal(t, "P000001", rm.PolicyNumber)
	assert.True(t, rm.IsFunded)
	assert.Equal(t, 1, f.gateway.Calls())
}

func TestBindPolicySkipsPaymentWhenAlreadyFunded(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	approved := f.approvedQuote(ctx, t, 125000)

	_, err := NewCardPaymentHandler(f.deps).Handle(ctx, commands.CardPaymentCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
	})
	require.NoError(t, err)

	rm, err := NewBindPolicyHandler(f.deps).Handle(ctx, commands.BindPolicyCommand{
		TenantID: "acme", QuoteID: approved.QuoteID,
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateBound.String(), rm.State)
	assert.Equal(t, 1, f.gateway.Calls())
}

func TestBindPolicyRejectsUnapprovedQuoteBeforeCharging(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 9000000.0})

	f.ratings.set(pricedCalculation(780000, "highSumInsured"), nil)
	_, err := NewCalculateQuoteHandler(f.deps).Handle(ctx, commands.CalculateQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	_, err = NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)

	_, err = NewBindPolicyHandler(f.deps).Handle(ctx, commands.BindPolicyCommand{
		TenantID: "acme", QuoteID: created.QuoteID, TokenID: "tok-1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
	assert.Equal(t, 0, f.gateway.Calls())
}

func TestBindPolicyDeclinedPaymentDoesNotBind(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	approved := f.approvedQuote(ctx, t, 125000)

	f.gateway.script(quote.PaymentGatewayResult{Success: false, Details: "declined"})
	_, err := NewBindPolicyHandler(f.deps).Handle(ctx, commands.BindPolicyCommand{
		TenantID: "acme", QuoteID: approved.QuoteID, TokenID: "tok-1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))

	view, viewErr := f.views.GetQuote(ctx, "acme", approved.QuoteID)
	require.NoError(t, viewErr)
	assert.Equal(t, quote.StateAutoApproved.String(), view.State)
	assert.Empty(t, view.PolicyNumber)
}

func TestTransactionQuoteSingleActive(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	bound := f.boundQuote(ctx, t)

	adjustment, err := NewCreateAdjustmentQuoteHandler(f.deps).Handle(ctx, commands.CreateAdjustmentQuoteCommand{
		TenantID:        "acme",
		AggregateID:     bound.AggregateID,
		InitialFormData: quote.FormData{"buildingValue": 1750000.0},
	})
	require.NoError(t, err)
	assert.Equal(t, quote.TypeAdjustment.String(), adjustment.Type)
	assert.Equal(t, quote.StateIncomplete.String(), adjustment.State)
	assert.Equal(t, bound.AggregateID, adjustment.AggregateID)

	_, err = NewCreateRenewalQuoteHandler(f.deps).Handle(ctx, commands.CreateRenewalQuoteCommand{
		TenantID:    "acme",
		AggregateID: bound.AggregateID,
	})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	renewal, err := NewCreateRenewalQuoteHandler(f.deps).Handle(ctx, commands.CreateRenewalQuoteCommand{
		TenantID:        "acme",
		AggregateID:     bound.AggregateID,
		DiscardExisting: true,
	})
	require.NoError(t, err)
	assert.Equal(t, quote.TypeRenewal.String(), renewal.Type)

	discarded, err := f.views.GetQuote(ctx, "acme", adjustment.QuoteID)
	require.NoError(t, err)
	assert.True(t, discarded.IsDiscarded)
}

func TestRenewalBindKeepsPolicyNumber(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	bound := f.boundQuote(ctx, t)

	renewal, err := NewCreateRenewalQuoteHandler(f.deps).Handle(ctx, commands.CreateRenewalQuoteCommand{
		TenantID:        "acme",
		AggregateID:     bound.AggregateID,
		InitialFormData: quote.FormData{"buildingValue": 1500000.0},
	})
	require.NoError(t, err)

	f.ratings.set(pricedCalculation(131000), nil)
	_, err = NewCalculateQuoteHandler(f.deps).Handle(ctx, commands.CalculateQuoteCommand{
		TenantID: "acme", QuoteID: renewal.QuoteID,
	})
	require.NoError(t, err)
	_, err = NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: renewal.QuoteID,
	})
	require.NoError(t, err)

	rm, err := NewBindPolicyHandler(f.deps).Handle(ctx, commands.BindPolicyCommand{
		TenantID: "acme", QuoteID: renewal.QuoteID, TokenID: "tok-1",
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateBound.String(), rm.State)
	assert.Equal(t, bound.PolicyNumber, rm.PolicyNumber)
	// Renewal premium was charged on top of the new-business payment.
	assert.Equal(t, 2, f.gateway.Calls())
}

func TestCloneExpiredQuote(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 1500000.0})

	_, err := NewCloneQuoteFromExpiredQuoteHandler(f.deps).Handle(ctx, commands.CloneQuoteFromExpiredQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))

	f.clock.Advance(31 * 24 * time.Hour)
	clone, err := NewCloneQuoteFromExpiredQuoteHandler(f.deps).Handle(ctx, commands.CloneQuoteFromExpiredQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, created.QuoteID, clone.QuoteID)
	assert.NotEqual(t, created.AggregateID, clone.AggregateID)
	assert.Equal(t, quote.StateIncomplete.String(), clone.State)
	assert.Equal(t, created.LatestFormData, clone.LatestFormData)
	assert.Equal(t, "2026-01", clone.ProductReleaseID)

	// The original aggregate is untouched.
	original, err := f.views.GetQuote(ctx, "acme", created.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, quote.StateIncomplete.String(), original.State)
}

func TestDeclineQuote(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})
	_, err := NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)

	rm, err := NewDeclineQuoteHandler(f.deps).Handle(ctx, commands.DeclineQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID, Reason: "outside appetite",
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateDeclined.String(), rm.State)
}

func TestReferAndApproveEndorsement(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})
	_, err := NewSubmitQuoteHandler(f.deps).Handle(ctx, commands.SubmitQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)

	referred, err := NewReferQuoteForEndorsementHandler(f.deps).Handle(ctx, commands.ReferQuoteForEndorsementCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateEndorsementReferred.String(), referred.State)

	approved, err := NewApproveEndorsementHandler(f.deps).Handle(ctx, commands.ApproveEndorsementCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateEndorsementApproved.String(), approved.State)
}

func TestDiscardQuote(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	rm, err := NewDiscardQuoteHandler(f.deps).Handle(ctx, commands.DiscardQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID, Reason: "duplicate",
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateDiscarded.String(), rm.State)
	assert.True(t, rm.IsDiscarded)
}

func TestAssociateCustomerAndAssignOwner(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	rm, err := NewAssociateQuoteWithCustomerHandler(f.deps).Handle(ctx, commands.AssociateQuoteWithCustomerCommand{
		TenantID: "acme", QuoteID: created.QuoteID, CustomerID: "cust-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "cust-42", rm.CustomerID)

	rm, err = NewAssignQuoteOwnerHandler(f.deps).Handle(ctx, commands.AssignQuoteOwnerCommand{
		TenantID: "acme", QuoteID: created.QuoteID, OwnerUserID: "broker-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "broker-7", rm.OwnerUserID)
}

func TestUpdateFormDataMovesNascentToIncomplete(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, nil)

	rm, err := NewUpdateFormDataHandler(f.deps).Handle(ctx, commands.UpdateFormDataCommand{
		TenantID: "acme",
		QuoteID:  created.QuoteID,
		FormData: quote.FormData{"postcode": "2000"},
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateIncomplete.String(), rm.State)
	assert.Equal(t, quote.FormData{"postcode": "2000"}, rm.LatestFormData)
}

func TestExpireQuote(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	rm, err := NewExpireQuoteHandler(f.deps).Handle(ctx, commands.ExpireQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.Equal(t, quote.StateExpired.String(), rm.State)

	// Expired is terminal; a clone is now permitted without waiting out the
	// expiry window.
	clone, err := NewCloneQuoteFromExpiredQuoteHandler(f.deps).Handle(ctx, commands.CloneQuoteFromExpiredQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, created.QuoteID, clone.QuoteID)
}

func TestExpireQuoteRejectedWhenBound(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	bound := f.boundQuote(ctx, t)

	_, err := NewExpireQuoteHandler(f.deps).Handle(ctx, commands.ExpireQuoteCommand{
		TenantID: "acme", QuoteID: bound.QuoteID,
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestAttachFileToQuote(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	_, err := NewAttachFileToQuoteHandler(f.deps).Handle(ctx, commands.AttachFileToQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
		FileID: "file-1", Name: "survey.pdf", Kind: "survey",
	})
	require.NoError(t, err)

	quoteID, err := shared.ParseQuoteID(created.QuoteID)
	require.NoError(t, err)
	a, err := f.deps.Repo.GetByQuoteID(ctx, "acme", quoteID)
	require.NoError(t, err)
	q, err := a.Quote(quoteID)
	require.NoError(t, err)
	require.Len(t, q.Files, 1)
	assert.Equal(t, "file-1", q.Files[0].FileID)
	assert.Equal(t, "survey.pdf", q.Files[0].Name)
	assert.Equal(t, handlerTestNow, q.Files[0].AttachedAt)
}

func TestAttachFileRejectedOnDiscarded(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})
	_, err := NewDiscardQuoteHandler(f.deps).Handle(ctx, commands.DiscardQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.NoError(t, err)

	_, err = NewAttachFileToQuoteHandler(f.deps).Handle(ctx, commands.AttachFileToQuoteCommand{
		TenantID: "acme", QuoteID: created.QuoteID, FileID: "file-1", Name: "survey.pdf",
	})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestMakeQuoteEnquiry(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	rm, err := NewMakeQuoteEnquiryHandler(f.deps).Handle(ctx, commands.MakeQuoteEnquiryCommand{
		TenantID: "acme", QuoteID: created.QuoteID, Message: "is flood cover included?",
	})
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, rm.Version)

	_, err = NewMakeQuoteEnquiryHandler(f.deps).Handle(ctx, commands.MakeQuoteEnquiryCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestMigrateQuoteOrganisation(t *testing.T) {
	f := newFixture(t)
	ctx := testContext()
	created := f.createQuote(ctx, t, quote.FormData{"buildingValue": 100.0})

	rm, err := NewMigrateQuoteOrganisationHandler(f.deps).Handle(ctx, commands.MigrateQuoteOrganisationCommand{
		TenantID: "acme", QuoteID: created.QuoteID, ToOrganisationID: "org-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "org-9", rm.OrganisationID)

	// The projection catches up with the migrated aggregate.
	view, err := f.views.GetQuote(ctx, "acme", created.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, "org-9", view.OrganisationID)

	_, err = NewMigrateQuoteOrganisationHandler(f.deps).Handle(ctx, commands.MigrateQuoteOrganisationCommand{
		TenantID: "acme", QuoteID: created.QuoteID,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
