// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the PostgreSQL and in-memory
// stores provide the implementations.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error every write made through ctx is undone,
	// otherwise the writes are committed together.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
