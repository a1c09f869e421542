// Package config loads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultJWTSecret is the development secret; production refuses to start with it.
const DefaultJWTSecret = "change-me-in-production"

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full process configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	StorageDriver string
	DatabaseURL   string
	DBMaxConns    int

	JWTSecret string
	JWTTTL    time.Duration

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration

	AllocatorMaxAttempts int
	AllocatorBaseDelay   time.Duration

	LoginRateRPS   float64
	LoginRateBurst int

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	MetricsEnabled bool
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver: getEnv("STORAGE_DRIVER", DriverPostgres),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 20),

		JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTTTL:    getEnvDuration("JWT_TTL", 12*time.Hour),

		IdempotencyEnabled: getEnvBool("IDEMPOTENCY_ENABLED", false),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		AllocatorMaxAttempts: getEnvInt("ALLOCATOR_MAX_ATTEMPTS", 3),
		AllocatorBaseDelay:   getEnvDuration("ALLOCATOR_BASE_DELAY", 20*time.Millisecond),

		LoginRateRPS:   getEnvFloat("LOGIN_RATE_RPS", 1),
		LoginRateBurst: getEnvInt("LOGIN_RATE_BURST", 5),

		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 100),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.Env == "production" && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.AllocatorMaxAttempts < 1 {
		errs = append(errs, errors.New("ALLOCATOR_MAX_ATTEMPTS must be at least 1"))
	}
	if c.OutboxBatchSize < 1 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
