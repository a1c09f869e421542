// Package numerator provides domain contracts for sequential business identifiers.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
)

// CounterStore is the persistence contract behind a series.
// IncrementAndGet must be a single atomic upsert-then-increment: concurrent callers for the
// same series always observe distinct values and a value is never handed out twice.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, series string) (int64, error)
	Set(ctx context.Context, series string, value int64) error
	// Get returns the last allocated value, 0 when the series has never been used.
	Get(ctx context.Context, series string) (int64, error)
}

// Generator hands out sequential identifiers.
type Generator interface {
	// Allocate returns the next value of series (first call yields 1).
	Allocate(ctx context.Context, series string) (int64, error)

	// Next allocates from cfg.Series and formats the result (e.g. INV0007).
	Next(ctx context.Context, cfg Config) (string, error)

	// Reset sets the last allocated value; the following Allocate returns value+1.
	Reset(ctx context.Context, series string, value int64) error

	// Current returns the last allocated value without advancing.
	Current(ctx context.Context, series string) (int64, error)
}
