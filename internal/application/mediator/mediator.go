// Package mediator is the single entry point for commands and queries. It
// runs the behavior pipeline around bus dispatch so transports never talk to
// handlers directly.
package mediator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"coverstack-backend/internal/application/bus"
	"coverstack-backend/internal/application/commands"
)

// Mediator wires the behavior pipeline around the command and query buses.
type Mediator struct {
	commandBus *bus.CommandBus
	queryBus   *bus.QueryBus
	logger     *zap.Logger
	behaviors  []Behavior
}

func NewMediator(commandBus *bus.CommandBus, queryBus *bus.QueryBus, logger *zap.Logger, behaviors ...Behavior) *Mediator {
	return &Mediator{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
		behaviors:  behaviors,
	}
}

// Send dispatches a command through the behavior pipeline and returns the
// handler's read-model result.
func (m *Mediator) Send(ctx context.Context, cmd commands.Command) (interface{}, error) {
	start := time.Now()

	for _, b := range m.behaviors {
		if err := b.PreProcess(ctx, cmd); err != nil {
			return nil, err
		}
	}

	result, err := m.commandBus.Send(ctx, cmd)

	for _, b := range m.behaviors {
		b.PostProcess(ctx, cmd, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Query dispatches a query through the behavior pipeline.
func (m *Mediator) Query(ctx context.Context, q bus.Query) (interface{}, error) {
	start := time.Now()

	for _, b := range m.behaviors {
		if err := b.PreProcessQuery(ctx, q); err != nil {
			return nil, err
		}
	}

	result, err := m.queryBus.Ask(ctx, q)

	for _, b := range m.behaviors {
		b.PostProcessQuery(ctx, q, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
