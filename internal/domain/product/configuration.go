// Package product models the versioned product configuration that governs
// quote operations: workflow rules, form schema, numbering, and payment
// settings. A release is an immutable snapshot; operations always run
// against one concrete release resolved up front.
package product

import (
	"time"

	"coverstack-backend/internal/domain/quote"
)

// FormType selects which of a product's form definitions an operation reads.
type FormType string

const (
	FormTypeQuote FormType = "quote"
	FormTypeClaim FormType = "claim"
)

// PaymentConfiguration holds the product's payment settings. A product
// without payment configuration cannot take card payments; that is a setup
// defect, not a transient failure.
type PaymentConfiguration struct {
	Gateway  string `yaml:"gateway" json:"gateway"`
	Currency string `yaml:"currency" json:"currency"`
}

// Configuration is one release's product configuration.
type Configuration struct {
	ProductName       string
	QuoteNumberPrefix string
	QuoteExpiry       time.Duration
	PolicyTerm        time.Duration
	Workflow          *quote.Workflow
	Payment           *PaymentConfiguration
}

// DefaultPolicyTerm applies when a release does not configure a term.
const DefaultPolicyTerm = 365 * 24 * time.Hour

// Term returns the configured policy term, defaulting to one year.
func (c *Configuration) Term() time.Duration {
	if c.PolicyTerm <= 0 {
		return DefaultPolicyTerm
	}
	return c.PolicyTerm
}

// ExpiryFor computes the quote expiry instant, or nil when the product does
// not expire quotes.
func (c *Configuration) ExpiryFor(now time.Time) *time.Time {
	if c.QuoteExpiry <= 0 {
		return nil
	}
	t := now.Add(c.QuoteExpiry)
	return &t
}

// FormSchema is the form definition served to the forms runtime. The command
// layer treats it as opaque.
type FormSchema map[string]interface{}
