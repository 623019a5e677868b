// Package bus dispatches commands and queries to their registered handlers
// by concrete type. Buses know nothing about transport or cross-cutting
// concerns; the mediator layers those on top.
package bus

import (
	"context"
	"reflect"
	"sync"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/errors"
)

// CommandHandler executes one command. Command handlers return the
// post-command read model so transports can respond without waiting for the
// asynchronous projection.
type CommandHandler interface {
	Handle(ctx context.Context, cmd commands.Command) (interface{}, error)
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(ctx context.Context, cmd commands.Command) (interface{}, error)

func (f CommandHandlerFunc) Handle(ctx context.Context, cmd commands.Command) (interface{}, error) {
	return f(ctx, cmd)
}

// CommandBus routes each command to the single handler registered for its
// concrete type.
type CommandBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]CommandHandler
}

func NewCommandBus() *CommandBus {
	return &CommandBus{handlers: make(map[reflect.Type]CommandHandler)}
}

// Register binds a handler to the command's concrete type. Double
// registration is a wiring bug.
func (b *CommandBus) Register(cmd commands.Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmd)
	if _, exists := b.handlers[t]; exists {
		return errors.Internal(errors.CodeInternalError.String(), "handler already registered for command").
			WithData("command", cmd.CommandName()).
			Build()
	}
	b.handlers[t] = handler
	return nil
}

// Send dispatches the command to its handler.
func (b *CommandBus) Send(ctx context.Context, cmd commands.Command) (interface{}, error) {
	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return nil, errors.Internal(errors.CodeInternalError.String(), "no handler registered for command").
			WithData("command", cmd.CommandName()).
			Build()
	}
	return handler.Handle(ctx, cmd)
}

// HandleCommand adapts a typed handler method to the bus's untyped contract.
func HandleCommand[C commands.Command, R any](fn func(ctx context.Context, cmd C) (R, error)) CommandHandler {
	return CommandHandlerFunc(func(ctx context.Context, cmd commands.Command) (interface{}, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, errors.Internal(errors.CodeInternalError.String(), "command type mismatch in dispatch").
				WithData("command", cmd.CommandName()).
				Build()
		}
		return fn(ctx, typed)
	})
}
