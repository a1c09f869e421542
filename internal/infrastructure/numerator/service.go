// Package numerator allocates sequential business identifiers on top of a CounterStore.
// This is the infrastructure layer - it implements core/numerator.Generator interface.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"uniformshop/internal/core/apperror"
	corenumerator "uniformshop/internal/core/numerator"
	"uniformshop/pkg/logger"
)

// Options tunes the retry policy of Allocate.
type Options struct {
	// MaxAttempts is the total number of store calls before giving up (default 3).
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles on every retry (default 20ms).
	BaseDelay time.Duration
	// MaxDelay caps a single wait (default 500ms).
	MaxDelay time.Duration
}

// DefaultOptions returns the production retry policy.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
	}
}

// Observer receives allocation outcomes (metrics hook).
type Observer interface {
	ObserveAllocation(series string, attempts int, err error)
}

// Service provides sequential numbering backed by a CounterStore.
// Every value comes straight from the store; nothing is cached in process.
type Service struct {
	store    corenumerator.CounterStore
	opts     Options
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(store corenumerator.CounterStore, opts Options) *Service {
	def := DefaultOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = def.BaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = def.MaxDelay
	}
	return &Service{store: store, opts: opts, sleep: sleepCtx}
}

// WithObserver attaches an allocation observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Allocate returns the next value of series.
// Store failures are retried with exponential backoff; once attempts are exhausted
// the caller gets ALLOCATION_FAILED. No substitute identifier is ever produced.
func (s *Service) Allocate(ctx context.Context, series string) (int64, error) {
	if strings.TrimSpace(series) == "" {
		return 0, apperror.NewValidation("series name is required")
	}

	var lastErr error
	attempts := 0
	delay := s.opts.BaseDelay
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		attempts = attempt
		n, err := s.store.IncrementAndGet(ctx, series)
		if err == nil {
			s.observe(series, attempt, nil)
			return n, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt == s.opts.MaxAttempts {
			break
		}

		logger.Warn(ctx, "sequence allocation failed, retrying",
			"series", series, "attempt", attempt, "delay", delay, "error", err)
		if err := s.sleep(ctx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
		delay = min(delay*2, s.opts.MaxDelay)
	}

	s.observe(series, attempts, lastErr)
	logger.Error(ctx, "sequence allocation failed", "series", series, "attempts", attempts, "error", lastErr)
	return 0, apperror.NewAllocationFailed(series, attempts, lastErr)
}

// Next allocates from cfg.Series and formats the value.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config) (string, error) {
	n, err := s.Allocate(ctx, cfg.Series)
	if err != nil {
		return "", err
	}
	return cfg.Format(n), nil
}

// Reset sets the last allocated value of series (administrative).
func (s *Service) Reset(ctx context.Context, series string, value int64) error {
	if strings.TrimSpace(series) == "" {
		return apperror.NewValidation("series name is required")
	}
	if value < 0 {
		return apperror.NewValidation("sequence value must not be negative").WithDetail("value", value)
	}
	if err := s.store.Set(ctx, series, value); err != nil {
		return apperror.NewStorageUnavailable(fmt.Errorf("reset sequence %s: %w", series, err))
	}
	logger.Info(ctx, "sequence reset", "series", series, "value", value)
	return nil
}

// Current returns the last allocated value of series.
func (s *Service) Current(ctx context.Context, series string) (int64, error) {
	if strings.TrimSpace(series) == "" {
		return 0, apperror.NewValidation("series name is required")
	}
	n, err := s.store.Get(ctx, series)
	if err != nil {
		return 0, apperror.NewStorageUnavailable(fmt.Errorf("read sequence %s: %w", series, err))
	}
	return n, nil
}

func (s *Service) observe(series string, attempts int, err error) {
	if s.observer != nil {
		s.observer.ObserveAllocation(series, attempts, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
