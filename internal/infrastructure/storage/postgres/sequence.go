package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"uniformshop/internal/core/numerator"
)

var _ numerator.CounterStore = (*SequenceStore)(nil)

// SequenceStore keeps series counters in sys_sequences.
// Every statement runs on the pool in autocommit mode, never in the caller's transaction:
// a failed allocation can be retried, and a rolled-back order leaves a gap instead of a reused value.
type SequenceStore struct {
	pool *pgxpool.Pool
}

// NewSequenceStore creates a counter store.
func NewSequenceStore(pool *pgxpool.Pool) *SequenceStore {
	return &SequenceStore{pool: pool}
}

// IncrementAndGet implements numerator.CounterStore with a single upsert.
func (s *SequenceStore) IncrementAndGet(ctx context.Context, series string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1, updated_at = now()
		RETURNING current_val
	`, series).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", series, err)
	}
	return n, nil
}

// Set implements numerator.CounterStore.
func (s *SequenceStore) Set(ctx context.Context, series string, value int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2, updated_at = now()
	`, series, value)
	if err != nil {
		return fmt.Errorf("set sequence %s: %w", series, err)
	}
	return nil
}

// Get implements numerator.CounterStore. A series never used reads as 0.
func (s *SequenceStore) Get(ctx context.Context, series string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT current_val FROM sys_sequences WHERE key = $1`, series).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", series, err)
	}
	return n, nil
}
