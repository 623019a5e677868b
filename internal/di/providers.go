// Package di assembles the object graph. Provider functions are grouped into
// Wire sets; wire_gen.go holds the generated initializer.
package di

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/wire"
	"go.uber.org/zap"

	"coverstack-backend/interfaces/http/rest"
	"coverstack-backend/internal/application/bus"
	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/commands/handlers"
	"coverstack-backend/internal/application/mediator"
	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/application/projections"
	"coverstack-backend/internal/application/queries"
	"coverstack-backend/internal/config"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
	dynamostore "coverstack-backend/internal/infrastructure/dynamodb"
	"coverstack-backend/internal/infrastructure/memory"
	"coverstack-backend/internal/infrastructure/messaging"
	"coverstack-backend/internal/infrastructure/payments"
	"coverstack-backend/internal/infrastructure/productconfig"
	"coverstack-backend/internal/observability"
	"coverstack-backend/internal/repository"
)

// App is the fully wired service.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Handler http.Handler
}

// InfrastructureSet builds the storage, locking, messaging, and payment
// adapters. Memory-mode switching happens inside the providers so the graph
// shape stays the same in both modes.
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideEventStore,
	ProvideLockService,
	ProvideReadModelRepository,
	ProvideNumberGenerator,
	ProvideQuoteRepository,
	ProvidePublisher,
	ProvidePaymentGateway,
	ProvideProductProvider,
	ProvideReleaseService,
	ProvideRatingService,
	ProvideConfigProvider,
	ProvideRetryConfig,
)

// ApplicationSet builds the command and query pipeline.
var ApplicationSet = wire.NewSet(
	ProvideProjector,
	ProvideDeps,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideMediator,
)

// InterfaceSet builds the HTTP surface.
var InterfaceSet = wire.NewSet(
	ProvideHandler,
	ProvideApp,
)

func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	if cfg.Environment == shared.EnvironmentDevelopment {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }
	return logger, cleanup, nil
}

func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics("coverstack")
}

func ProvideAWSConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	if cfg.UseMemoryInfra {
		// Memory mode never touches AWS; an empty config satisfies the graph.
		return aws.Config{}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx)
}

func ProvideDynamoDBClient(awsCfg aws.Config, cfg config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDB.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
		}
	})
}

func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

func ProvideEventStore(client *awsdynamodb.Client, cfg config.Config, logger *zap.Logger) repository.EventStore {
	if cfg.UseMemoryInfra {
		return memory.NewEventStore()
	}
	return dynamostore.NewEventStore(client, cfg.DynamoDB.EventsTable, logger)
}

func ProvideLockService(client *awsdynamodb.Client, cfg config.Config, logger *zap.Logger) ports.AggregateLockService {
	if cfg.UseMemoryInfra {
		return memory.NewLockService(cfg.Lock.AcquireTimeout)
	}
	return dynamostore.NewLockService(client, cfg.DynamoDB.LocksTable, dynamostore.LockServiceConfig{
		LeaseDuration:  cfg.Lock.LeaseDuration,
		AcquireTimeout: cfg.Lock.AcquireTimeout,
		PollInterval:   cfg.Lock.PollInterval,
	}, logger)
}

func ProvideReadModelRepository(client *awsdynamodb.Client, cfg config.Config, logger *zap.Logger) ports.QuoteReadModelRepository {
	if cfg.UseMemoryInfra {
		return memory.NewReadModelRepository()
	}
	return dynamostore.NewReadModelRepository(client, cfg.DynamoDB.ViewsTable, logger)
}

func ProvideNumberGenerator(client *awsdynamodb.Client, cfg config.Config, logger *zap.Logger) ports.ReferenceNumberGenerator {
	if cfg.UseMemoryInfra {
		return memory.NewNumberGenerator()
	}
	return dynamostore.NewNumberGenerator(client, cfg.DynamoDB.LocksTable, logger)
}

func ProvideQuoteRepository(store repository.EventStore, logger *zap.Logger) quote.Repository {
	return repository.NewQuoteAggregateRepository(store, logger)
}

func ProvideProjector(repo quote.Repository, views ports.QuoteReadModelRepository, logger *zap.Logger) *projections.QuoteProjector {
	return projections.NewQuoteProjector(repo, views, logger)
}

// projectionPublisher feeds committed events straight into the projector.
type projectionPublisher struct {
	projector *projections.QuoteProjector
}

func (p projectionPublisher) Publish(ctx context.Context, tenantID shared.TenantID, events []shared.DomainEvent) error {
	return p.projector.HandleEvents(ctx, tenantID, events)
}

func ProvidePublisher(client *awseventbridge.Client, cfg config.Config, projector *projections.QuoteProjector, logger *zap.Logger) ports.EventPublisher {
	if cfg.UseMemoryInfra {
		p := memory.NewPublisher()
		p.Subscribe(projector)
		return p
	}
	return messaging.NewFanOutPublisher(
		projectionPublisher{projector: projector},
		messaging.NewEventBridgePublisher(client, cfg.Events.BusName, cfg.Events.Source, logger),
	)
}

func ProvidePaymentGateway(cfg config.Config, metrics *observability.Metrics, logger *zap.Logger) (ports.PaymentGateway, error) {
	if cfg.UseMemoryInfra {
		return memory.NewPaymentGateway(), nil
	}
	gateway, err := payments.NewMercadoPagoGateway(cfg.Payments.MercadoPagoAccessToken, logger)
	if err != nil {
		return nil, err
	}
	return payments.NewCircuitBreakerGateway(gateway, metrics, logger), nil
}

func ProvideProductProvider(cfg config.Config, logger *zap.Logger) (*productconfig.Provider, func(), error) {
	provider, err := productconfig.NewProvider(cfg.Products.Dir, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = provider.Close() }
	return provider, cleanup, nil
}

func ProvideReleaseService(cfg config.Config, provider *productconfig.Provider) ports.ReleaseQueryService {
	return productconfig.NewReleaseService(cfg.Products.Dir, provider)
}

func ProvideRatingService(provider *productconfig.Provider) ports.RatingService {
	return productconfig.NewRatingService(provider)
}

func ProvideConfigProvider(provider *productconfig.Provider) ports.ProductConfigProvider {
	return provider
}

func ProvideRetryConfig(cfg config.Config) repository.RetryConfig {
	retry := repository.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retry.MaxAttempts
	retry.BaseDelay = cfg.Retry.BaseDelay
	return retry
}

func ProvideDeps(
	repo quote.Repository,
	locks ports.AggregateLockService,
	retry repository.RetryConfig,
	publisher ports.EventPublisher,
	configProvider ports.ProductConfigProvider,
	releases ports.ReleaseQueryService,
	numbers ports.ReferenceNumberGenerator,
	gateway ports.PaymentGateway,
	ratings ports.RatingService,
	logger *zap.Logger,
) *handlers.Deps {
	return &handlers.Deps{
		Repo:      repo,
		Locks:     locks,
		Retry:     retry,
		Clock:     shared.NewSystemClock(),
		Identity:  shared.NewContextIdentityProvider(),
		Publisher: publisher,
		Config:    configProvider,
		Releases:  releases,
		Numbers:   numbers,
		Payments:  gateway,
		Ratings:   ratings,
		Logger:    logger,
	}
}

// ProvideCommandBus registers every command handler. A missing registration
// is a startup failure, not a request-time one.
func ProvideCommandBus(deps *handlers.Deps) (*bus.CommandBus, error) {
	b := bus.NewCommandBus()

	registrations := []struct {
		cmd     commands.Command
		handler bus.CommandHandler
	}{
		{commands.CreateNewBusinessQuoteCommand{}, bus.HandleCommand(handlers.NewCreateNewBusinessQuoteHandler(deps).Handle)},
		{commands.UpdateFormDataCommand{}, bus.HandleCommand(handlers.NewUpdateFormDataHandler(deps).Handle)},
		{commands.SubmitQuoteCommand{}, bus.HandleCommand(handlers.NewSubmitQuoteHandler(deps).Handle)},
		{commands.CalculateQuoteCommand{}, bus.HandleCommand(handlers.NewCalculateQuoteHandler(deps).Handle)},
		{commands.DeclineQuoteCommand{}, bus.HandleCommand(handlers.NewDeclineQuoteHandler(deps).Handle)},
		{commands.ReferQuoteForEndorsementCommand{}, bus.HandleCommand(handlers.NewReferQuoteForEndorsementHandler(deps).Handle)},
		{commands.ApproveEndorsementCommand{}, bus.HandleCommand(handlers.NewApproveEndorsementHandler(deps).Handle)},
		{commands.DiscardQuoteCommand{}, bus.HandleCommand(handlers.NewDiscardQuoteHandler(deps).Handle)},
		{commands.CardPaymentCommand{}, bus.HandleCommand(handlers.NewCardPaymentHandler(deps).Handle)},
		{commands.BindPolicyCommand{}, bus.HandleCommand(handlers.NewBindPolicyHandler(deps).Handle)},
		{commands.CreateAdjustmentQuoteCommand{}, bus.HandleCommand(handlers.NewCreateAdjustmentQuoteHandler(deps).Handle)},
		{commands.CreateRenewalQuoteCommand{}, bus.HandleCommand(handlers.NewCreateRenewalQuoteHandler(deps).Handle)},
		{commands.CreateCancellationQuoteCommand{}, bus.HandleCommand(handlers.NewCreateCancellationQuoteHandler(deps).Handle)},
		{commands.CloneQuoteFromExpiredQuoteCommand{}, bus.HandleCommand(handlers.NewCloneQuoteFromExpiredQuoteHandler(deps).Handle)},
		{commands.AssociateQuoteWithCustomerCommand{}, bus.HandleCommand(handlers.NewAssociateQuoteWithCustomerHandler(deps).Handle)},
		{commands.AssignQuoteOwnerCommand{}, bus.HandleCommand(handlers.NewAssignQuoteOwnerHandler(deps).Handle)},
		{commands.ExpireQuoteCommand{}, bus.HandleCommand(handlers.NewExpireQuoteHandler(deps).Handle)},
		{commands.AttachFileToQuoteCommand{}, bus.HandleCommand(handlers.NewAttachFileToQuoteHandler(deps).Handle)},
		{commands.MakeQuoteEnquiryCommand{}, bus.HandleCommand(handlers.NewMakeQuoteEnquiryHandler(deps).Handle)},
		{commands.MigrateQuoteOrganisationCommand{}, bus.HandleCommand(handlers.NewMigrateQuoteOrganisationHandler(deps).Handle)},
	}
	for _, reg := range registrations {
		if err := b.Register(reg.cmd, reg.handler); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func ProvideQueryBus(views ports.QuoteReadModelRepository, logger *zap.Logger) (*bus.QueryBus, error) {
	b := bus.NewQueryBus()
	service := queries.NewQuoteQueryService(views, logger)

	if err := b.Register(queries.GetQuoteQuery{}, bus.HandleQuery(service.GetQuote)); err != nil {
		return nil, err
	}
	if err := b.Register(queries.ListAggregateQuotesQuery{}, bus.HandleQuery(service.ListAggregateQuotes)); err != nil {
		return nil, err
	}
	return b, nil
}

func ProvideMediator(commandBus *bus.CommandBus, queryBus *bus.QueryBus, metrics *observability.Metrics, logger *zap.Logger) *mediator.Mediator {
	return mediator.NewMediator(commandBus, queryBus, logger,
		mediator.NewValidationBehavior(),
		mediator.NewLoggingBehavior(logger),
		mediator.NewMetricsBehavior(metrics),
	)
}

func ProvideHandler(med *mediator.Mediator, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	return rest.NewRouter(med, metrics, logger).Setup()
}

func ProvideApp(cfg config.Config, logger *zap.Logger, metrics *observability.Metrics, handler http.Handler) *App {
	return &App{Config: cfg, Logger: logger, Metrics: metrics, Handler: handler}
}
