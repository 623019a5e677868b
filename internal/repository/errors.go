package repository

import (
	stderrors "errors"
	"fmt"

	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// AggregateVersionError reports an optimistic-concurrency conflict: the
// persisted event stream advanced past the version the aggregate was loaded
// at. It is retried transparently by the retry policy.
type AggregateVersionError struct {
	AggregateID     shared.AggregateID
	ExpectedVersion shared.Version
	ActualVersion   shared.Version
}

func (e *AggregateVersionError) Error() string {
	return fmt.Sprintf("optimistic concurrency conflict for aggregate %s: expected version %d, actual version %d",
		e.AggregateID, e.ExpectedVersion, e.ActualVersion)
}

// IsConcurrencyConflict reports whether err is a version conflict, directly
// or wrapped.
func IsConcurrencyConflict(err error) bool {
	var versionErr *AggregateVersionError
	return stderrors.As(err, &versionErr)
}

// NewAggregateNotFoundError is returned when no events exist for the id.
func NewAggregateNotFoundError(aggregateID shared.AggregateID) error {
	return errors.NotFound(errors.CodeAggregateNotFound.String(), "quote aggregate not found").
		WithResource("quoteAggregate").
		WithData("aggregateId", aggregateID.String()).
		Build()
}

// NewQuoteIndexNotFoundError is returned when the quote-id secondary index
// has no mapping for the quote.
func NewQuoteIndexNotFoundError(quoteID shared.QuoteID) error {
	return errors.NotFound(errors.CodeQuoteNotFound.String(), "no aggregate found for quote").
		WithResource("quote").
		WithData("quoteId", quoteID.String()).
		Build()
}

// NewConcurrencyExhaustedError converts a conflict that survived all retries
// into the transient failure surfaced to callers.
func NewConcurrencyExhaustedError(attempts int, cause error) error {
	return errors.Conflict(errors.CodeConcurrencyConflict.String(),
		fmt.Sprintf("the aggregate was modified concurrently and the operation did not succeed after %d attempts", attempts)).
		WithRetryable(0).
		WithCause(cause).
		Build()
}
