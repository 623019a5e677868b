// Package commands defines the immutable command objects accepted by the
// application layer. Commands are the contract boundary with the transport
// layer: plain strings and maps in, validated and parsed by handlers.
package commands

import (
	"coverstack-backend/internal/domain/quote"
)

// Command is implemented by every command object.
type Command interface {
	// CommandName is the stable name used for dispatch, logging, and
	// metrics.
	CommandName() string
}

// CreateNewBusinessQuoteCommand starts a fresh quote aggregate.
type CreateNewBusinessQuoteCommand struct {
	TenantID         string         `json:"tenantId" validate:"required"`
	OrganisationID   string         `json:"organisationId"`
	ProductID        string         `json:"productId" validate:"required"`
	Environment      string         `json:"environment" validate:"required"`
	IsTestData       bool           `json:"isTestData"`
	ProductReleaseID string         `json:"productReleaseId"` // optional override; defaults to the current default release
	CustomerID       string         `json:"customerId"`
	InitialFormData  quote.FormData `json:"initialFormData"`
}

func (CreateNewBusinessQuoteCommand) CommandName() string { return "CreateNewBusinessQuote" }

// UpdateFormDataCommand records a new form payload for a quote.
type UpdateFormDataCommand struct {
	TenantID        string                 `json:"tenantId" validate:"required"`
	QuoteID         string                 `json:"quoteId" validate:"required,uuid4"`
	FormData        quote.FormData         `json:"formData" validate:"required"`
	CustomerDetails *quote.CustomerDetails `json:"customerDetails"`
}

func (UpdateFormDataCommand) CommandName() string { return "UpdateFormData" }

// SubmitQuoteCommand submits the quote for processing and assigns its quote
// number.
type SubmitQuoteCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
}

func (SubmitQuoteCommand) CommandName() string { return "SubmitQuote" }

// CalculateQuoteCommand runs the product's rating logic over the quote's
// latest form data and records the result.
type CalculateQuoteCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
}

func (CalculateQuoteCommand) CommandName() string { return "CalculateQuote" }

// DeclineQuoteCommand declines the quote.
type DeclineQuoteCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
	Reason   string `json:"reason"`
}

func (DeclineQuoteCommand) CommandName() string { return "DeclineQuote" }

// ReferQuoteForEndorsementCommand sends the quote to an underwriter.
type ReferQuoteForEndorsementCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
}

func (ReferQuoteForEndorsementCommand) CommandName() string { return "ReferQuoteForEndorsement" }

// ApproveEndorsementCommand approves a previously referred quote.
type ApproveEndorsementCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
}

func (ApproveEndorsementCommand) CommandName() string { return "ApproveEndorsement" }

// DiscardQuoteCommand retires a quote without deleting its history.
type DiscardQuoteCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
	Reason   string `json:"reason"`
}

func (DiscardQuoteCommand) CommandName() string { return "DiscardQuote" }

// CardPaymentCommand attempts a card payment for the quote. Exactly one of
// TokenID, SavedMethodID, or Card must be provided.
type CardPaymentCommand struct {
	TenantID      string             `json:"tenantId" validate:"required"`
	QuoteID       string             `json:"quoteId" validate:"required,uuid4"`
	TokenID       string             `json:"tokenId"`
	SavedMethodID string             `json:"savedMethodId"`
	Card          *quote.CardDetails `json:"card"`
}

func (CardPaymentCommand) CommandName() string { return "CardPayment" }

// BindPolicyCommand binds an approved quote, taking payment first when the
// quote is not yet funded.
type BindPolicyCommand struct {
	TenantID      string             `json:"tenantId" validate:"required"`
	QuoteID       string             `json:"quoteId" validate:"required,uuid4"`
	TokenID       string             `json:"tokenId"`
	SavedMethodID string             `json:"savedMethodId"`
	Card          *quote.CardDetails `json:"card"`
}

func (BindPolicyCommand) CommandName() string { return "BindPolicy" }

// CreateAdjustmentQuoteCommand opens an adjustment quote against an existing
// policy's aggregate.
type CreateAdjustmentQuoteCommand struct {
	TenantID         string         `json:"tenantId" validate:"required"`
	AggregateID      string         `json:"aggregateId" validate:"required,uuid4"`
	ProductReleaseID string         `json:"productReleaseId"`
	InitialFormData  quote.FormData `json:"initialFormData"`
	DiscardExisting  bool           `json:"discardExisting"`
}

func (CreateAdjustmentQuoteCommand) CommandName() string { return "CreateAdjustmentQuote" }

// CreateRenewalQuoteCommand opens a renewal quote against an existing
// policy's aggregate.
type CreateRenewalQuoteCommand struct {
	TenantID         string         `json:"tenantId" validate:"required"`
	AggregateID      string         `json:"aggregateId" validate:"required,uuid4"`
	ProductReleaseID string         `json:"productReleaseId"`
	InitialFormData  quote.FormData `json:"initialFormData"`
	DiscardExisting  bool           `json:"discardExisting"`
}

func (CreateRenewalQuoteCommand) CommandName() string { return "CreateRenewalQuote" }

// CreateCancellationQuoteCommand opens a cancellation quote against an
// existing policy's aggregate.
type CreateCancellationQuoteCommand struct {
	TenantID         string         `json:"tenantId" validate:"required"`
	AggregateID      string         `json:"aggregateId" validate:"required,uuid4"`
	ProductReleaseID string         `json:"productReleaseId"`
	InitialFormData  quote.FormData `json:"initialFormData"`
	DiscardExisting  bool           `json:"discardExisting"`
}

func (CreateCancellationQuoteCommand) CommandName() string { return "CreateCancellationQuote" }

// CloneQuoteFromExpiredQuoteCommand creates a brand new aggregate from an
// expired new-business quote, inheriting customer association and owner. The
// original aggregate is untouched.
type CloneQuoteFromExpiredQuoteCommand struct {
	TenantID         string `json:"tenantId" validate:"required"`
	QuoteID          string `json:"quoteId" validate:"required,uuid4"`
	ProductReleaseID string `json:"productReleaseId"`
}

func (CloneQuoteFromExpiredQuoteCommand) CommandName() string { return "CloneQuoteFromExpiredQuote" }

// AssociateQuoteWithCustomerCommand links the quote's aggregate to a
// customer record.
type AssociateQuoteWithCustomerCommand struct {
	TenantID   string `json:"tenantId" validate:"required"`
	QuoteID    string `json:"quoteId" validate:"required,uuid4"`
	CustomerID string `json:"customerId" validate:"required"`
}

func (AssociateQuoteWithCustomerCommand) CommandName() string { return "AssociateQuoteWithCustomer" }

// AssignQuoteOwnerCommand assigns the owning user of the quote's aggregate.
type AssignQuoteOwnerCommand struct {
	TenantID    string `json:"tenantId" validate:"required"`
	QuoteID     string `json:"quoteId" validate:"required,uuid4"`
	OwnerUserID string `json:"ownerUserId" validate:"required"`
}

func (AssignQuoteOwnerCommand) CommandName() string { return "AssignQuoteOwner" }

// ExpireQuoteCommand marks the quote expired. Expiry also happens lazily when
// a stale quote is cloned; this command lets sweep jobs retire quotes
// proactively.
type ExpireQuoteCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
}

func (ExpireQuoteCommand) CommandName() string { return "ExpireQuote" }

// AttachFileToQuoteCommand records a file against the quote.
type AttachFileToQuoteCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
	FileID   string `json:"fileId" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Kind     string `json:"kind"`
}

func (AttachFileToQuoteCommand) CommandName() string { return "AttachFileToQuote" }

// MakeQuoteEnquiryCommand records a customer enquiry against the quote.
type MakeQuoteEnquiryCommand struct {
	TenantID string `json:"tenantId" validate:"required"`
	QuoteID  string `json:"quoteId" validate:"required,uuid4"`
	Message  string `json:"message" validate:"required"`
}

func (MakeQuoteEnquiryCommand) CommandName() string { return "MakeQuoteEnquiry" }

// MigrateQuoteOrganisationCommand moves the quote's aggregate to another
// organisation.
type MigrateQuoteOrganisationCommand struct {
	TenantID         string `json:"tenantId" validate:"required"`
	QuoteID          string `json:"quoteId" validate:"required,uuid4"`
	ToOrganisationID string `json:"toOrganisationId" validate:"required"`
}

func (MigrateQuoteOrganisationCommand) CommandName() string { return "MigrateQuoteOrganisation" }
