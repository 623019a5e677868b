package quote

import (
	stderrors "errors"
	"fmt"

	"coverstack-backend/internal/domain/shared"
	"coverstack-backend/internal/errors"
)

// NewOperationNotPermittedError builds the structured error raised when a
// workflow precondition is violated. It carries the attempted action, the
// current state, and the set of permitted states so the caller can render a
// precise message without string parsing.
func NewOperationNotPermittedError(action Action, current State, workflow *Workflow) *errors.Error {
	permitted := workflow.PermittedStates(action)
	names := make([]string, len(permitted))
	for i, s := range permitted {
		names[i] = s.String()
	}
	return errors.Domain(errors.CodeOperationNotPermitted.String(),
		fmt.Sprintf("action %q is not permitted while the quote is in state %q", action, current)).
		WithOperation(action.String()).
		WithResource("quote").
		WithData("action", action.String()).
		WithData("currentState", current.String()).
		WithData("permittedStates", names).
		Build()
}

// IsOperationNotPermitted reports whether err is a workflow precondition
// violation.
func IsOperationNotPermitted(err error) bool {
	var appErr *errors.Error
	return stderrors.As(err, &appErr) && appErr.Code == errors.CodeOperationNotPermitted.String()
}

// NewQuoteNotFoundError is raised when the aggregate does not contain the
// referenced quote.
func NewQuoteNotFoundError(quoteID shared.QuoteID) *errors.Error {
	return errors.NotFound(errors.CodeQuoteNotFound.String(), "quote not found").
		WithResource("quote").
		WithData("quoteId", quoteID.String()).
		Build()
}

// NewPaymentAlreadyMadeError guards the not-already-paid precondition.
func NewPaymentAlreadyMadeError(quoteID shared.QuoteID) *errors.Error {
	return errors.Conflict(errors.CodePaymentAlreadyMade.String(),
		"a successful payment has already been recorded for this quote").
		WithResource("quote").
		WithData("quoteId", quoteID.String()).
		Build()
}

// NewActiveTransactionQuoteError enforces the single-active-transaction-quote
// invariant: creating a new adjustment, renewal, or cancellation quote while
// an earlier one is still open requires an explicit discard first.
func NewActiveTransactionQuoteError(existingID shared.QuoteID, existingType Type) *errors.Error {
	return errors.Conflict(errors.CodeQuoteAlreadyActive.String(),
		fmt.Sprintf("an active %s quote already exists for this policy; discard it before creating a new one", existingType)).
		WithResource("quote").
		WithData("existingQuoteId", existingID.String()).
		WithData("existingQuoteType", existingType.String()).
		Build()
}

// NewQuoteNotExpiredError guards cloning, which only applies to expired
// quotes.
func NewQuoteNotExpiredError(quoteID shared.QuoteID, current State) *errors.Error {
	return errors.Domain(errors.CodeQuoteExpired.String(),
		"only an expired quote can be cloned into a new aggregate").
		WithResource("quote").
		WithData("quoteId", quoteID.String()).
		WithData("currentState", current.String()).
		Build()
}

// NewPolicyRequiredError is raised when a policy transaction quote is
// requested on an aggregate that has never bound.
func NewPolicyRequiredError(aggregateID shared.AggregateID) *errors.Error {
	return errors.Domain(errors.CodePolicyNotFound.String(),
		"the aggregate has no issued policy to transact against").
		WithResource("policy").
		WithData("aggregateId", aggregateID.String()).
		Build()
}
