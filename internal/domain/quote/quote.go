package quote

import (
	"time"

	"coverstack-backend/internal/domain/shared"
)

// Type distinguishes the four kinds of insurance transaction a quote
// represents.
type Type string

const (
	TypeNewBusiness  Type = "newBusiness"
	TypeAdjustment   Type = "adjustment"
	TypeRenewal      Type = "renewal"
	TypeCancellation Type = "cancellation"
)

func (t Type) String() string { return string(t) }

// IsPolicyTransaction reports whether the quote transacts against an existing
// policy and therefore lives inside the policy's aggregate.
func (t Type) IsPolicyTransaction() bool {
	return t == TypeAdjustment || t == TypeRenewal || t == TypeCancellation
}

// FormData is the latest application form payload captured for a quote.
type FormData map[string]interface{}

// Clone returns a shallow copy so callers cannot mutate aggregate state
// behind the reducer's back.
func (f FormData) Clone() FormData {
	if f == nil {
		return nil
	}
	out := make(FormData, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// CustomerDetails is the snapshot of customer contact details captured on the
// quote at form-data time.
type CustomerDetails struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// PriceBreakdown is the priced output of a calculation, in minor currency
// units.
type PriceBreakdown struct {
	Currency       string `json:"currency"`
	BasePremium    int64  `json:"basePremium"`
	ESL            int64  `json:"esl"`
	GST            int64  `json:"gst"`
	BrokerFee      int64  `json:"brokerFee"`
	TotalPayable   int64  `json:"totalPayable"`
}

// CalculationResult is the outcome of running the product's rating logic over
// the quote's form data.
type CalculationResult struct {
	CalculationID string         `json:"calculationId"`
	Triggers      []string       `json:"triggers,omitempty"`
	Price         PriceBreakdown `json:"price"`
	CalculatedAt  time.Time      `json:"calculatedAt"`
}

// RequiresReferral reports whether the rating raised any referral triggers.
func (c CalculationResult) RequiresReferral() bool {
	return len(c.Triggers) > 0
}

// PaymentAttemptResult records the outcome of a single payment attempt.
// Every attempt is recorded for audit, failures included.
type PaymentAttemptResult struct {
	Success     bool      `json:"success"`
	Reference   string    `json:"reference,omitempty"`
	Details     string    `json:"details,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

// AttachedFile records a file attached to the quote.
type AttachedFile struct {
	FileID     string    `json:"fileId"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	AttachedAt time.Time `json:"attachedAt"`
}

// VersionSnapshot is a point-in-time capture of the quote's form data and
// calculation, created by the CreateVersion operation.
type VersionSnapshot struct {
	Number      int                `json:"number"`
	FormData    FormData           `json:"formData"`
	Calculation *CalculationResult `json:"calculation,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Quote is a single proposed insurance transaction within an aggregate. Its
// fields are only ever mutated by the aggregate's event reducer.
type Quote struct {
	ID                    shared.QuoteID          `json:"id"`
	Type                  Type                    `json:"type"`
	QuoteNumber           string                  `json:"quoteNumber,omitempty"`
	ProductReleaseID      shared.ProductReleaseID `json:"productReleaseId"`
	State                 State                   `json:"state"`
	LatestFormData        FormData                `json:"latestFormData,omitempty"`
	LatestCustomerDetails *CustomerDetails        `json:"latestCustomerDetails,omitempty"`
	LatestCalculation     *CalculationResult      `json:"latestCalculation,omitempty"`
	LatestPaymentAttempt  *PaymentAttemptResult   `json:"latestPaymentAttempt,omitempty"`
	TransactionCompleted  bool                    `json:"transactionCompleted"`
	IsDiscarded           bool                    `json:"isDiscarded"`
	Files                 []AttachedFile          `json:"files,omitempty"`
	Versions              []VersionSnapshot       `json:"versions,omitempty"`
	CreatedAt             time.Time               `json:"createdAt"`
	ExpiresAt             *time.Time              `json:"expiresAt,omitempty"`
}

// IsActive reports whether the quote still occupies its aggregate's active
// slot: not discarded and not transaction-completed.
func (q *Quote) IsActive() bool {
	return !q.IsDiscarded && !q.TransactionCompleted && !q.State.IsTerminal()
}

// IsFunded reports whether the latest payment attempt succeeded. A failed
// attempt never marks a quote as paid.
func (q *Quote) IsFunded() bool {
	return q.LatestPaymentAttempt != nil && q.LatestPaymentAttempt.Success
}

// IsExpired reports whether the quote passed its expiry instant.
func (q *Quote) IsExpired(now time.Time) bool {
	if q.State == StateExpired {
		return true
	}
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}
