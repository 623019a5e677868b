// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"coverstack-backend/internal/domain/shared"
)

// Config holds every runtime setting the service needs. Values come from
// environment variables with local-development defaults.
type Config struct {
	ServiceName string
	Environment shared.Environment
	Port        int
	LogLevel    string

	DynamoDB DynamoDBConfig
	Events   EventsConfig
	Lock     LockConfig
	Retry    RetryConfig
	Payments PaymentsConfig
	Products ProductsConfig
	Tracing  TracingConfig

	// UseMemoryInfra swaps DynamoDB and EventBridge for in-process
	// implementations. Local development only.
	UseMemoryInfra bool
}

type DynamoDBConfig struct {
	EventsTable    string
	ViewsTable     string
	LocksTable     string
	AggregateIndex string
	// Endpoint overrides the AWS endpoint for dynamodb-local.
	Endpoint string
}

type EventsConfig struct {
	BusName string
	Source  string
}

type LockConfig struct {
	LeaseDuration  time.Duration
	AcquireTimeout time.Duration
	PollInterval   time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type PaymentsConfig struct {
	MercadoPagoAccessToken string
}

type ProductsConfig struct {
	// Dir is the root directory holding per-product release YAML files.
	Dir string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	env, err := shared.ParseEnvironment(getEnv("ENVIRONMENT", "development"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "coverstack-backend"),
		Environment: env,
		Port:        getInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DynamoDB: DynamoDBConfig{
			EventsTable:    getEnv("EVENTS_TABLE", "coverstack-events-dev"),
			ViewsTable:     getEnv("VIEWS_TABLE", "coverstack-views-dev"),
			LocksTable:     getEnv("LOCKS_TABLE", "coverstack-locks-dev"),
			AggregateIndex: getEnv("AGGREGATE_INDEX", "aggregate-index"),
			Endpoint:       os.Getenv("DYNAMODB_ENDPOINT"),
		},
		Events: EventsConfig{
			BusName: getEnv("EVENT_BUS_NAME", "coverstack-events"),
			Source:  getEnv("EVENT_SOURCE", "coverstack.quotes"),
		},
		Lock: LockConfig{
			LeaseDuration:  getDuration("LOCK_LEASE_DURATION", 30*time.Second),
			AcquireTimeout: getDuration("LOCK_ACQUIRE_TIMEOUT", 10*time.Second),
			PollInterval:   getDuration("LOCK_POLL_INTERVAL", 100*time.Millisecond),
		},
		Retry: RetryConfig{
			MaxAttempts: getInt("CONCURRENCY_RETRY_ATTEMPTS", 3),
			BaseDelay:   getDuration("CONCURRENCY_RETRY_BASE_DELAY", 50*time.Millisecond),
		},
		Payments: PaymentsConfig{
			MercadoPagoAccessToken: os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		},
		Products: ProductsConfig{
			Dir: getEnv("PRODUCT_CONFIG_DIR", "configs/products"),
		},
		Tracing: TracingConfig{
			Enabled:    getBool("TRACING_ENABLED", false),
			Endpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SampleRate: getFloat("TRACING_SAMPLE_RATE", 0.1),
		},
		UseMemoryInfra: getBool("USE_MEMORY_INFRA", false),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks for settings that would only fail at request time.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Lock.PollInterval <= 0 || c.Lock.AcquireTimeout <= 0 || c.Lock.LeaseDuration <= 0 {
		return fmt.Errorf("config: lock durations must be positive")
	}
	if !c.UseMemoryInfra {
		if c.DynamoDB.EventsTable == "" || c.DynamoDB.ViewsTable == "" || c.DynamoDB.LocksTable == "" {
			return fmt.Errorf("config: dynamodb table names are required")
		}
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("config: tracing enabled but OTEL_EXPORTER_OTLP_ENDPOINT is empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
