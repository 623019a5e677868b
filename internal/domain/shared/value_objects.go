// Package shared holds the value objects, event contracts, and aggregate
// plumbing common to every domain package.
package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"coverstack-backend/internal/errors"
)

// Environment identifies which deployment environment an aggregate belongs to.
// An aggregate's environment is immutable after creation.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// ParseEnvironment normalizes and validates an environment name.
func ParseEnvironment(raw string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(raw))) {
	case EnvironmentDevelopment:
		return EnvironmentDevelopment, nil
	case EnvironmentStaging:
		return EnvironmentStaging, nil
	case EnvironmentProduction:
		return EnvironmentProduction, nil
	default:
		return "", errors.Validation(errors.CodeInvalidInput.String(),
			fmt.Sprintf("unknown environment %q", raw)).Build()
	}
}

func (e Environment) String() string { return string(e) }

// TenantID identifies the tenant that owns an aggregate.
type TenantID string

func NewTenantID(raw string) (TenantID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.Validation(errors.CodeInvalidInput.String(), "tenant id cannot be empty").Build()
	}
	return TenantID(raw), nil
}

func (t TenantID) String() string { return string(t) }

// OrganisationID identifies the organisation a quote was created under.
type OrganisationID string

func (o OrganisationID) String() string { return string(o) }

// ProductID identifies an insurance product within a tenant.
type ProductID string

func (p ProductID) String() string { return string(p) }

// UserID identifies the acting user on an operation.
type UserID string

func (u UserID) String() string { return string(u) }
func (u UserID) IsZero() bool   { return u == "" }

// CustomerID identifies the customer a quote is associated with. Nullable
// until association; the zero value means "not associated".
type CustomerID string

func (c CustomerID) String() string { return string(c) }
func (c CustomerID) IsZero() bool   { return c == "" }

// AggregateID identifies a quote aggregate. For new business it equals the
// first quote's id; for existing policies it is the policy id.
type AggregateID string

func NewAggregateID() AggregateID {
	return AggregateID(uuid.New().String())
}

func ParseAggregateID(raw string) (AggregateID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.Validation(errors.CodeInvalidInput.String(), "aggregate id must be a valid UUID").
			WithCause(err).Build()
	}
	return AggregateID(id.String()), nil
}

func (a AggregateID) String() string { return string(a) }

// QuoteID identifies a single quote entity within an aggregate.
type QuoteID string

func NewQuoteID() QuoteID {
	return QuoteID(uuid.New().String())
}

func ParseQuoteID(raw string) (QuoteID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.Validation(errors.CodeInvalidInput.String(), "quote id must be a valid UUID").
			WithCause(err).Build()
	}
	return QuoteID(id.String()), nil
}

func (q QuoteID) String() string { return string(q) }

// ProductReleaseID identifies a versioned snapshot of product configuration.
type ProductReleaseID string

func (r ProductReleaseID) String() string { return string(r) }
func (r ProductReleaseID) IsZero() bool   { return r == "" }

// ReleaseContext identifies which versioned product configuration governs an
// operation. Immutable, compared by value.
type ReleaseContext struct {
	TenantID         TenantID
	ProductID        ProductID
	Environment      Environment
	ProductReleaseID ProductReleaseID
}

func NewReleaseContext(tenantID TenantID, productID ProductID, env Environment, releaseID ProductReleaseID) ReleaseContext {
	return ReleaseContext{
		TenantID:         tenantID,
		ProductID:        productID,
		Environment:      env,
		ProductReleaseID: releaseID,
	}
}

func (rc ReleaseContext) String() string {
	return fmt.Sprintf("%s/%s/%s@%s", rc.TenantID, rc.ProductID, rc.Environment, rc.ProductReleaseID)
}

// Version is the aggregate's optimistic-concurrency version. It equals the
// number of events persisted to the aggregate's stream.
type Version int

func (v Version) Int() int       { return int(v) }
func (v Version) Next() Version  { return v + 1 }
