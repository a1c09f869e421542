package numerator

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
// Without overrides it counts per series in memory.
type MockGenerator struct {
	AllocateFunc func(ctx context.Context, series string) (int64, error)

	mu     sync.Mutex
	values map[string]int64
}

// Allocate implements Generator.
func (m *MockGenerator) Allocate(ctx context.Context, series string) (int64, error) {
	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, series)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]int64)
	}
	m.values[series]++
	return m.values[series], nil
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, cfg Config) (string, error) {
	n, err := m.Allocate(ctx, cfg.Series)
	if err != nil {
		return "", err
	}
	return cfg.Format(n), nil
}

// Reset implements Generator.
func (m *MockGenerator) Reset(_ context.Context, series string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]int64)
	}
	m.values[series] = value
	return nil
}

// Current implements Generator.
func (m *MockGenerator) Current(_ context.Context, series string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[series], nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
