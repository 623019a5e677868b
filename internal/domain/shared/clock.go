package shared

import (
	"context"
	"time"
)

// Clock supplies the current time to all operations. Domain code never reads
// the wall clock directly so tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock returns a constant instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }

// IdentityProvider resolves the acting user for the current request.
type IdentityProvider interface {
	PerformingUser(ctx context.Context) UserID
}

type userIDKey struct{}

// WithPerformingUser stores the acting user on the context. Set by the HTTP
// middleware after authentication.
func WithPerformingUser(ctx context.Context, userID UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// ContextIdentityProvider reads the acting user from the request context.
type ContextIdentityProvider struct{}

func NewContextIdentityProvider() ContextIdentityProvider { return ContextIdentityProvider{} }

func (ContextIdentityProvider) PerformingUser(ctx context.Context) UserID {
	if id, ok := ctx.Value(userIDKey{}).(UserID); ok {
		return id
	}
	return ""
}
