package errors

// ErrorCode is a stable machine-readable identifier for a specific failure.
// Codes are part of the public API contract; never reuse or renumber them.
type ErrorCode string

func (c ErrorCode) String() string { return string(c) }

const (
	// Aggregate / quote lookup
	CodeAggregateNotFound ErrorCode = "quote.aggregate.not.found"
	CodeQuoteNotFound     ErrorCode = "quote.not.found"
	CodePolicyNotFound    ErrorCode = "policy.not.found"
	CodeCustomerNotFound  ErrorCode = "customer.not.found"

	// Workflow / state machine
	CodeOperationNotPermitted ErrorCode = "quote.operation.not.permitted.for.state"
	CodeQuoteAlreadyDiscarded ErrorCode = "quote.already.discarded"
	CodeQuoteAlreadyBound     ErrorCode = "quote.already.bound"
	CodeQuoteExpired          ErrorCode = "quote.expired"
	CodeQuoteAlreadyActive    ErrorCode = "quote.transaction.quote.already.active"
	CodeQuoteNumberAssigned   ErrorCode = "quote.number.already.assigned"
	CodeEnvironmentMismatch   ErrorCode = "quote.environment.mismatch"

	// Payment
	CodePaymentAlreadyMade  ErrorCode = "payment.already.made"
	CodePaymentFailed       ErrorCode = "payment.attempt.failed"
	CodePaymentConfigAbsent ErrorCode = "payment.configuration.missing"

	// Concurrency / locking
	CodeConcurrencyConflict ErrorCode = "aggregate.concurrency.conflict"
	CodeLockTimeout         ErrorCode = "aggregate.lock.timeout"
	CodeLockNotAcquired     ErrorCode = "aggregate.lock.not.acquired"

	// Product configuration
	CodeProductConfigNotFound ErrorCode = "product.configuration.not.found"
	CodeReleaseNotFound       ErrorCode = "product.release.not.found"
	CodeWorkflowInvalid       ErrorCode = "product.workflow.invalid"

	// General
	CodeValidationFailed ErrorCode = "request.validation.failed"
	CodeInvalidInput     ErrorCode = "request.invalid.input"
	CodeInternalError    ErrorCode = "internal.error"
)
