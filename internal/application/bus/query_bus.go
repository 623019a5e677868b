package bus

import (
	"context"
	"reflect"
	"sync"

	"coverstack-backend/internal/errors"
)

// Query is implemented by every query object.
type Query interface {
	QueryName() string
}

// QueryHandler executes one query.
type QueryHandler interface {
	Handle(ctx context.Context, q Query) (interface{}, error)
}

// QueryHandlerFunc adapts a function to QueryHandler.
type QueryHandlerFunc func(ctx context.Context, q Query) (interface{}, error)

func (f QueryHandlerFunc) Handle(ctx context.Context, q Query) (interface{}, error) {
	return f(ctx, q)
}

// QueryBus routes each query to the single handler registered for its
// concrete type.
type QueryBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]QueryHandler
}

func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: make(map[reflect.Type]QueryHandler)}
}

func (b *QueryBus) Register(q Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(q)
	if _, exists := b.handlers[t]; exists {
		return errors.Internal(errors.CodeInternalError.String(), "handler already registered for query").
			WithData("query", q.QueryName()).
			Build()
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches the query to its handler.
func (b *QueryBus) Ask(ctx context.Context, q Query) (interface{}, error) {
	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(q)]
	b.mu.RUnlock()

	if !exists {
		return nil, errors.Internal(errors.CodeInternalError.String(), "no handler registered for query").
			WithData("query", q.QueryName()).
			Build()
	}
	return handler.Handle(ctx, q)
}

// HandleQuery adapts a typed query method to the bus's untyped contract.
func HandleQuery[Q Query, R any](fn func(ctx context.Context, q Q) (R, error)) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		typed, ok := q.(Q)
		if !ok {
			return nil, errors.Internal(errors.CodeInternalError.String(), "query type mismatch in dispatch").
				WithData("query", q.QueryName()).
				Build()
		}
		return fn(ctx, typed)
	})
}
