package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("ALLOCATOR_MAX_ATTEMPTS", "")
	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 3, cfg.AllocatorMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.AllocatorBaseDelay)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ALLOCATOR_MAX_ATTEMPTS", "5")
	t.Setenv("IDEMPOTENCY_ENABLED", "true")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	cfg := Load()

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 5, cfg.AllocatorMaxAttempts)
	assert.True(t, cfg.IdempotencyEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 20, cfg.DBMaxConns)
}

func TestValidate(t *testing.T) {
	base := Config{StorageDriver: DriverMemory, Env: "development", JWTSecret: DefaultJWTSecret, AllocatorMaxAttempts: 3, OutboxBatchSize: 10}
	require.NoError(t, base.Validate())

	pg := base
	pg.StorageDriver = DriverPostgres
	assert.ErrorContains(t, pg.Validate(), "DATABASE_URL")

	prod := base
	prod.Env = "production"
	assert.ErrorContains(t, prod.Validate(), "JWT_SECRET")

	prod.JWTSecret = "s3cret"
	assert.NoError(t, prod.Validate())

	bad := base
	bad.StorageDriver = "mysql"
	assert.Error(t, bad.Validate())
}
