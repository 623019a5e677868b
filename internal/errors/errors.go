// Package errors provides the unified error handling system used across all
// application layers. Every business rule violation carries a machine-readable
// code plus enough structured context for callers to render a precise message
// without string parsing.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType defines the category of error for proper handling and response.
type ErrorType string

const (
	// Business logic errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeDomain       ErrorType = "DOMAIN"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// Infrastructure errors
	ErrorTypeInternal ErrorType = "INTERNAL"
	ErrorTypeTimeout  ErrorType = "TIMEOUT"

	// External service errors
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// ErrorSeverity defines the severity level for logging and monitoring.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "LOW"
	SeverityMedium   ErrorSeverity = "MEDIUM"
	SeverityHigh     ErrorSeverity = "HIGH"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// Error is the single error type shared by domain, application, and
// infrastructure code.
type Error struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	// Context
	Operation string `json:"operation,omitempty"`
	Resource  string `json:"resource,omitempty"`
	TenantID  string `json:"tenantId,omitempty"`

	// Metadata
	Severity   ErrorSeverity          `json:"severity"`
	Retryable  bool                   `json:"retryable"`
	RetryAfter time.Duration          `json:"retryAfter,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Builder provides a fluent interface for constructing Error instances.
type Builder struct {
	err *Error
}

// NewError starts a builder with the given type, code, and message.
func NewError(errType ErrorType, code, message string) *Builder {
	return &Builder{
		err: &Error{
			Type:     errType,
			Code:     code,
			Message:  message,
			Severity: SeverityMedium,
			Data:     nil,
		},
	}
}

func (b *Builder) WithDetails(details string) *Builder {
	b.err.Details = details
	return b
}

func (b *Builder) WithOperation(op string) *Builder {
	b.err.Operation = op
	return b
}

func (b *Builder) WithResource(resource string) *Builder {
	b.err.Resource = resource
	return b
}

func (b *Builder) WithTenant(tenantID string) *Builder {
	b.err.TenantID = tenantID
	return b
}

func (b *Builder) WithSeverity(severity ErrorSeverity) *Builder {
	b.err.Severity = severity
	return b
}

func (b *Builder) WithRetryable(after time.Duration) *Builder {
	b.err.Retryable = true
	b.err.RetryAfter = after
	return b
}

func (b *Builder) WithCause(cause error) *Builder {
	b.err.Cause = cause
	return b
}

// WithData attaches a structured context value for client-side messaging.
func (b *Builder) WithData(key string, value interface{}) *Builder {
	if b.err.Data == nil {
		b.err.Data = make(map[string]interface{})
	}
	b.err.Data[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return b.err
}

// Shorthand constructors for common categories.

func Validation(code, message string) *Builder {
	return NewError(ErrorTypeValidation, code, message).WithSeverity(SeverityLow)
}

func NotFound(code, message string) *Builder {
	return NewError(ErrorTypeNotFound, code, message).WithSeverity(SeverityLow)
}

func Conflict(code, message string) *Builder {
	return NewError(ErrorTypeConflict, code, message)
}

func Domain(code, message string) *Builder {
	return NewError(ErrorTypeDomain, code, message)
}

func Internal(code, message string) *Builder {
	return NewError(ErrorTypeInternal, code, message).WithSeverity(SeverityHigh)
}

func Timeout(code, message string) *Builder {
	return NewError(ErrorTypeTimeout, code, message).WithRetryable(time.Second)
}

func External(code, message string) *Builder {
	return NewError(ErrorTypeExternal, code, message)
}

// Wrap attaches context to an arbitrary error, preserving the type and code
// when the error is already one of ours.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{
			Type:      appErr.Type,
			Code:      appErr.Code,
			Message:   fmt.Sprintf("%s: %s", message, appErr.Message),
			Details:   appErr.Details,
			Operation: appErr.Operation,
			Resource:  appErr.Resource,
			Severity:  appErr.Severity,
			Retryable: appErr.Retryable,
			Data:      appErr.Data,
			Cause:     err,
		}
	}
	return Internal(CodeInternalError.String(), message).WithCause(err).Build()
}

// Type checking helpers.

func IsType(err error, errType ErrorType) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Type == errType
}

func IsValidation(err error) bool   { return IsType(err, ErrorTypeValidation) }
func IsNotFound(err error) bool     { return IsType(err, ErrorTypeNotFound) }
func IsConflict(err error) bool     { return IsType(err, ErrorTypeConflict) }
func IsDomain(err error) bool       { return IsType(err, ErrorTypeDomain) }
func IsTimeout(err error) bool      { return IsType(err, ErrorTypeTimeout) }
func IsInternal(err error) bool     { return IsType(err, ErrorTypeInternal) }

// IsRetryable reports whether the failed operation may be retried by the caller.
func IsRetryable(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Retryable
}

// CodeOf extracts the machine-readable code, or "" for foreign errors.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
