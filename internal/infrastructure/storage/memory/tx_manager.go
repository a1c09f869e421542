// Package memory provides an in-process store with the same contracts as the
// PostgreSQL one. Writes made inside RunInTransaction are journaled and undone
// when the transaction function fails.
package memory

import (
	"context"
	"sync"

	"uniformshop/internal/core/tx"
	"uniformshop/pkg/logger"
)

// Compile-time check that TxManager implements tx.Manager interface.
var _ tx.Manager = (*TxManager)(nil)

type journalKey struct{}

// journal is the compensating-action log of one transaction.
type journal struct {
	mu   sync.Mutex
	undo []func()
}

func (j *journal) add(fn func()) {
	j.mu.Lock()
	j.undo = append(j.undo, fn)
	j.mu.Unlock()
}

// rollback applies compensations in reverse order.
func (j *journal) rollback() int {
	j.mu.Lock()
	steps := j.undo
	j.undo = nil
	j.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
	return len(steps)
}

// TxManager runs functions with an undo journal in the context.
// Other goroutines may observe uncommitted writes; atomicity, not isolation, is provided.
type TxManager struct{}

// NewTxManager creates a transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// RunInTransaction executes fn and undoes its journaled writes if it fails or panics.
// Nested calls join the outer journal.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}

	j := &journal{}
	txCtx := context.WithValue(ctx, journalKey{}, j)

	defer func() {
		if r := recover(); r != nil {
			j.rollback()
			panic(r)
		}
	}()

	if err = fn(txCtx); err != nil {
		if n := j.rollback(); n > 0 {
			logger.Debug(ctx, "transaction rolled back", "compensations", n, "error", err)
		}
		return err
	}
	return nil
}

// Ping always succeeds.
func (m *TxManager) Ping(context.Context) error { return nil }

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// onRollback registers fn to run if the surrounding transaction fails.
// Outside a transaction the write is final and fn is dropped.
func onRollback(ctx context.Context, fn func()) {
	if j := journalFrom(ctx); j != nil {
		j.add(fn)
	}
}
