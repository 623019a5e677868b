// Package models holds the denormalized read models returned by commands and
// queries. Read models are eventually-consistent derived state; they are
// never consulted for a write-path decision.
package models

import (
	"time"

	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// NewQuoteReadModel is the public contract each quote command returns.
type NewQuoteReadModel struct {
	QuoteID        string `json:"quoteId"`
	AggregateID    string `json:"aggregateId"`
	TenantID       string `json:"tenantId"`
	OrganisationID string `json:"organisationId"`
	ProductID      string `json:"productId"`
	Environment    string `json:"environment"`
	IsTestData     bool   `json:"isTestData"`

	Type                 string `json:"type"`
	State                string `json:"state"`
	QuoteNumber          string `json:"quoteNumber,omitempty"`
	ProductReleaseID     string `json:"productReleaseId"`
	PolicyNumber         string `json:"policyNumber,omitempty"`
	CustomerID           string `json:"customerId,omitempty"`
	OwnerUserID          string `json:"ownerUserId,omitempty"`
	IsDiscarded          bool   `json:"isDiscarded"`
	TransactionCompleted bool   `json:"transactionCompleted"`
	IsFunded             bool   `json:"isFunded"`

	TotalPayable int64  `json:"totalPayable,omitempty"`
	Currency     string `json:"currency,omitempty"`

	LatestFormData quote.FormData `json:"latestFormData,omitempty"`

	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
	Version      int       `json:"version"`
}

// ProjectQuote builds the read model for one quote from the freshly saved
// aggregate. Command handlers use it as their return value so callers see
// the post-command state without waiting for the asynchronous projection.
func ProjectQuote(a *quote.Aggregate, quoteID shared.QuoteID, lastModified time.Time) (*NewQuoteReadModel, error) {
	q, err := a.Quote(quoteID)
	if err != nil {
		return nil, err
	}
	rm := &NewQuoteReadModel{
		QuoteID:              q.ID.String(),
		AggregateID:          a.ID().String(),
		TenantID:             a.TenantID.String(),
		OrganisationID:       a.OrganisationID.String(),
		ProductID:            a.ProductID.String(),
		Environment:          a.Environment.String(),
		IsTestData:           a.IsTestData,
		Type:                 q.Type.String(),
		State:                q.State.String(),
		QuoteNumber:          q.QuoteNumber,
		ProductReleaseID:     q.ProductReleaseID.String(),
		CustomerID:           a.CustomerID.String(),
		OwnerUserID:          a.OwnerUserID.String(),
		IsDiscarded:          q.IsDiscarded,
		TransactionCompleted: q.TransactionCompleted,
		IsFunded:             q.IsFunded(),
		LatestFormData:       q.LatestFormData,
		CreatedAt:            q.CreatedAt,
		LastModified:         lastModified,
		Version:              a.Version().Int(),
	}
	if a.Policy != nil {
		rm.PolicyNumber = a.Policy.PolicyNumber
	}
	if q.LatestCalculation != nil {
		rm.TotalPayable = q.LatestCalculation.Price.TotalPayable
		rm.Currency = q.LatestCalculation.Price.Currency
	}
	return rm, nil
}
