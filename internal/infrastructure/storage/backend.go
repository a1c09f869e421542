// Package storage assembles the repositories of one storage driver behind common interfaces.
package storage

import (
	"context"
	"fmt"
	"time"

	"uniformshop/internal/core/idempotency"
	corenumerator "uniformshop/internal/core/numerator"
	"uniformshop/internal/core/tx"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/auth"
	"uniformshop/internal/domain/catalogs/customer"
	"uniformshop/internal/domain/catalogs/product"
	"uniformshop/internal/domain/documents/invoice"
	"uniformshop/internal/domain/documents/tailoring"
	"uniformshop/internal/domain/reports"
	"uniformshop/internal/infrastructure/storage/memory"
	"uniformshop/internal/infrastructure/storage/postgres"
	"uniformshop/internal/infrastructure/storage/postgres/auth_repo"
	"uniformshop/internal/infrastructure/storage/postgres/catalog_repo"
	"uniformshop/internal/infrastructure/storage/postgres/document_repo"
	"uniformshop/internal/infrastructure/storage/postgres/report_repo"
)

// Auditor writes and reads the audit trail.
type Auditor interface {
	domain.AuditLogger
	domain.AuditHistory
}

// Backend is the full set of stores used by the services.
type Backend struct {
	Driver      string
	TxManager   tx.Manager
	Counters    corenumerator.CounterStore
	Products    product.Repository
	Customers   customer.Repository
	Invoices    invoice.Repository
	Tailoring   tailoring.Repository
	Users       auth.UserRepository
	Events      domain.EventPublisher
	Audit       Auditor
	Idempotency idempotency.Store
	Reports     reports.Repository
	Pinger      tx.Pinger

	// Pool is set for the postgres driver only.
	Pool  *postgres.Pool
	close func()
}

// Close releases the underlying connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// NewMemory builds a Backend held entirely in process memory.
func NewMemory(idempotencyTTL time.Duration) *Backend {
	s := memory.NewStore(idempotencyTTL)
	return &Backend{
		Driver:      "memory",
		TxManager:   s.TxManager,
		Counters:    s.Sequences,
		Products:    s.Products,
		Customers:   s.Customers,
		Invoices:    s.Invoices,
		Tailoring:   s.Tailoring,
		Users:       s.Users,
		Events:      s.Outbox,
		Audit:       s.Audit,
		Idempotency: s.Idempotency,
		Reports:     s.Reports,
		Pinger:      s.TxManager,
	}
}

// PostgresConfig configures NewPostgres.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	IdempotencyTTL time.Duration
	// Migrate applies the embedded schema before returning.
	Migrate bool
}

// NewPostgres connects to PostgreSQL and builds the repositories on one TxManager.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DSN)
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	txm := postgres.NewTxManager(pool)
	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Backend{
		Driver:      "postgres",
		TxManager:   txm,
		Counters:    postgres.NewSequenceStore(pool.Pool),
		Products:    catalog_repo.NewProductRepo(txm),
		Customers:   catalog_repo.NewCustomerRepo(txm),
		Invoices:    document_repo.NewInvoiceRepo(txm),
		Tailoring:   document_repo.NewTailoringRepo(txm),
		Users:       auth_repo.NewUserRepo(txm),
		Events:      postgres.NewOutboxPublisher(txm),
		Audit:       audit,
		Idempotency: postgres.NewIdempotencyStore(pool, cfg.IdempotencyTTL),
		Reports:     report_repo.NewReportRepo(txm),
		Pinger:      txm,
		Pool:        pool,
		close:       pool.Close,
	}, nil
}
