package memory

import (
	"context"
	"sync"

	"uniformshop/internal/core/numerator"
)

var _ numerator.CounterStore = (*SequenceStore)(nil)

// SequenceStore keeps series counters in a mutex-guarded map.
// Increments are not journaled: a rolled-back order leaves a gap, as on PostgreSQL.
type SequenceStore struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewSequenceStore creates an empty counter store.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{values: make(map[string]int64)}
}

// IncrementAndGet implements numerator.CounterStore.
func (s *SequenceStore) IncrementAndGet(ctx context.Context, series string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[series]++
	return s.values[series], nil
}

// Set implements numerator.CounterStore.
func (s *SequenceStore) Set(_ context.Context, series string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[series] = value
	return nil
}

// Get implements numerator.CounterStore.
func (s *SequenceStore) Get(_ context.Context, series string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[series], nil
}
