package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/tx"
	"uniformshop/pkg/logger"
)

var tracer = otel.Tracer("uniformshop/tx")

var (
	_ tx.Manager = (*TxManager)(nil)
	_ tx.Pinger  = (*TxManager)(nil)
)

// SQLSTATEs after which the whole transaction may simply be run again.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// TxConfig tunes TxManager.
type TxConfig struct {
	// StatementTimeout bounds every statement of a transaction (0 disables).
	StatementTimeout time.Duration
	// MaxAttempts is how many times a transaction that hit a deadlock or
	// serialization failure is run in total.
	MaxAttempts int
}

// DefaultTxConfig returns the settings used by the server.
func DefaultTxConfig() TxConfig {
	return TxConfig{
		StatementTimeout: 10 * time.Second,
		MaxAttempts:      3,
	}
}

// TxManager runs functions inside pgx transactions carried in the context.
// Nested calls join the outer transaction.
type TxManager struct {
	pool *pgxpool.Pool
	cfg  TxConfig
}

// NewTxManager creates a transaction manager with DefaultTxConfig.
func NewTxManager(pool *Pool) *TxManager {
	return NewTxManagerWithConfig(pool, DefaultTxConfig())
}

// NewTxManagerWithConfig creates a transaction manager.
func NewTxManagerWithConfig(pool *Pool, cfg TxConfig) *TxManager {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &TxManager{pool: pool.Pool, cfg: cfg}
}

// Ping checks that the database answers.
func (m *TxManager) Ping(ctx context.Context) error {
	return m.pool.Ping(ctx)
}

type txKey struct{}

// RunInTransaction executes fn within a read-committed transaction.
// A deadlock or serialization failure reruns fn from the start, so fn must not
// have effects outside the transaction that cannot be repeated.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.GetTx(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "transaction")
	defer span.End()

	var err error
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		span.SetAttributes(attribute.Int("tx.attempt", attempt))
		err = m.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) || attempt == m.cfg.MaxAttempts {
			break
		}
		logger.Warn(ctx, "transaction conflict, retrying", "attempt", attempt, "error", err)
		span.AddEvent("retry", trace.WithAttributes(attribute.String("error", err.Error())))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ptx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperror.NewStorageUnavailable(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = ptx.Rollback(context.Background())
			panic(r)
		}
		if err != nil {
			// Background ctx: the rollback must finish even when the request was cancelled.
			if rbErr := ptx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
			}
		}
	}()

	if m.cfg.StatementTimeout > 0 {
		if _, err = ptx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", m.cfg.StatementTimeout.Milliseconds())); err != nil {
			return apperror.NewStorageUnavailable(fmt.Errorf("set statement_timeout: %w", err))
		}
	}

	if err = fn(context.WithValue(ctx, txKey{}, ptx)); err != nil {
		return err
	}

	if err = ptx.Commit(ctx); err != nil {
		if isRetryable(err) {
			return err
		}
		return apperror.NewStorageUnavailable(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

// GetTx returns the current transaction from context, or nil if none.
func (m *TxManager) GetTx(ctx context.Context) pgx.Tx {
	if t, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return t
	}
	return nil
}

// Querier is the part of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction in ctx, or the pool outside a transaction.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t
	}
	return m.pool
}
