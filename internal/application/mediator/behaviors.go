package mediator

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"coverstack-backend/internal/application/bus"
	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/errors"
	"coverstack-backend/internal/observability"
)

// Behavior is a cross-cutting concern applied around every command and
// query dispatch.
type Behavior interface {
	PreProcess(ctx context.Context, cmd commands.Command) error
	PostProcess(ctx context.Context, cmd commands.Command, took time.Duration, err error)
	PreProcessQuery(ctx context.Context, q bus.Query) error
	PostProcessQuery(ctx context.Context, q bus.Query, took time.Duration, err error)
}

// ValidationBehavior runs struct-tag validation on every command and query
// before dispatch.
type ValidationBehavior struct {
	validate *validator.Validate
}

func NewValidationBehavior() *ValidationBehavior {
	return &ValidationBehavior{validate: validator.New()}
}

func (b *ValidationBehavior) PreProcess(ctx context.Context, cmd commands.Command) error {
	return b.check(cmd, cmd.CommandName())
}

func (b *ValidationBehavior) PostProcess(ctx context.Context, cmd commands.Command, took time.Duration, err error) {
}

func (b *ValidationBehavior) PreProcessQuery(ctx context.Context, q bus.Query) error {
	return b.check(q, q.QueryName())
}

func (b *ValidationBehavior) PostProcessQuery(ctx context.Context, q bus.Query, took time.Duration, err error) {
}

func (b *ValidationBehavior) check(v interface{}, name string) error {
	if err := b.validate.Struct(v); err != nil {
		builder := errors.Validation(errors.CodeValidationFailed.String(), "request validation failed").
			WithData("request", name)
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			builder = builder.WithData("fields", fields)
		}
		return builder.WithCause(err).Build()
	}
	return nil
}

// LoggingBehavior logs every dispatch with its outcome and duration.
type LoggingBehavior struct {
	logger *zap.Logger
}

func NewLoggingBehavior(logger *zap.Logger) *LoggingBehavior {
	return &LoggingBehavior{logger: logger}
}

func (b *LoggingBehavior) PreProcess(ctx context.Context, cmd commands.Command) error {
	b.logger.Debug("executing command", zap.String("command", cmd.CommandName()))
	return nil
}

func (b *LoggingBehavior) PostProcess(ctx context.Context, cmd commands.Command, took time.Duration, err error) {
	if err != nil {
		b.logger.Warn("command failed",
			zap.String("command", cmd.CommandName()),
			zap.Duration("took", took),
			zap.Error(err))
		return
	}
	b.logger.Info("command succeeded",
		zap.String("command", cmd.CommandName()),
		zap.Duration("took", took))
}

func (b *LoggingBehavior) PreProcessQuery(ctx context.Context, q bus.Query) error {
	b.logger.Debug("executing query", zap.String("query", q.QueryName()))
	return nil
}

func (b *LoggingBehavior) PostProcessQuery(ctx context.Context, q bus.Query, took time.Duration, err error) {
	if err != nil {
		b.logger.Warn("query failed",
			zap.String("query", q.QueryName()),
			zap.Duration("took", took),
			zap.Error(err))
	}
}

// MetricsBehavior records dispatch counts and latency.
type MetricsBehavior struct {
	metrics *observability.Metrics
}

func NewMetricsBehavior(metrics *observability.Metrics) *MetricsBehavior {
	return &MetricsBehavior{metrics: metrics}
}

func (b *MetricsBehavior) PreProcess(ctx context.Context, cmd commands.Command) error { return nil }

func (b *MetricsBehavior) PostProcess(ctx context.Context, cmd commands.Command, took time.Duration, err error) {
	b.metrics.RecordCommand(cmd.CommandName(), took, err)
}

func (b *MetricsBehavior) PreProcessQuery(ctx context.Context, q bus.Query) error { return nil }

func (b *MetricsBehavior) PostProcessQuery(ctx context.Context, q bus.Query, took time.Duration, err error) {
	b.metrics.RecordQuery(q.QueryName(), took, err)
}
