package quote

import (
	"time"

	"coverstack-backend/internal/domain/shared"
)

// PolicyStatus tracks the lifecycle of an issued policy.
type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusAdjusted  PolicyStatus = "adjusted"
	PolicyStatusRenewed   PolicyStatus = "renewed"
	PolicyStatusCancelled PolicyStatus = "cancelled"
)

// PolicyTransaction records one bound quote's effect on the policy. The
// transaction list is the policy's authoritative history.
type PolicyTransaction struct {
	QuoteID       shared.QuoteID `json:"quoteId"`
	QuoteType     Type           `json:"quoteType"`
	EffectiveFrom time.Time      `json:"effectiveFrom"`
	RecordedAt    time.Time      `json:"recordedAt"`
}

// Policy is the issued policy owned by an aggregate once its new business
// quote binds. Adjustment, renewal, and cancellation quotes append
// transactions to it.
type Policy struct {
	PolicyNumber  string              `json:"policyNumber"`
	Status        PolicyStatus        `json:"status"`
	InceptionDate time.Time           `json:"inceptionDate"`
	ExpiryDate    time.Time           `json:"expiryDate"`
	Transactions  []PolicyTransaction `json:"transactions"`
	IssuedAt      time.Time           `json:"issuedAt"`
}
