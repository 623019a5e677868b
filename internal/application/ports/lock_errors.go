package ports

import (
	stderrors "errors"
	"time"

	"coverstack-backend/internal/errors"
)

// NewLockTimeoutError reports that lock acquisition exceeded its bounded
// wait. Surfaced as a distinct transient error so callers can back off and
// retry the whole command.
func NewLockTimeoutError(resource string, waited time.Duration) error {
	return errors.Timeout(errors.CodeLockTimeout.String(),
		"timed out waiting for the aggregate lock").
		WithResource(resource).
		WithData("waited", waited.String()).
		Build()
}

// NewLockNotAcquiredError reports an irrecoverable lock-store fault.
func NewLockNotAcquiredError(resource string, cause error) error {
	return errors.Internal(errors.CodeLockNotAcquired.String(),
		"the lock store failed to acquire the aggregate lock").
		WithResource(resource).
		WithCause(cause).
		Build()
}

// IsLockTimeout reports whether err is a lock acquisition timeout.
func IsLockTimeout(err error) bool {
	var appErr *errors.Error
	return stderrors.As(err, &appErr) && appErr.Code == errors.CodeLockTimeout.String()
}
