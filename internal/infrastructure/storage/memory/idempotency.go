package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

// staleAfter is how long a pending key may stay claimed before it can be reclaimed.
const staleAfter = time.Minute

type idempotencyRecord struct {
	userID      string
	operation   string
	requestHash string
	status      idempotency.Status
	replay      idempotency.Replay
	updatedAt   time.Time
	expiresAt   time.Time
}

// IdempotencyStore keeps idempotency keys in memory.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]*idempotencyRecord
	now     func() time.Time
}

// NewIdempotencyStore creates a store whose keys expire after ttl (24h when zero).
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		ttl:     ttl,
		records: make(map[string]*idempotencyRecord),
		now:     time.Now,
	}
}

// AcquireKey implements idempotency.Store.
func (s *IdempotencyStore) AcquireKey(_ context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	rec, ok := s.records[key]
	if !ok || now.After(rec.expiresAt) {
		s.records[key] = &idempotencyRecord{
			userID:      userID,
			operation:   operation,
			requestHash: requestHash,
			status:      idempotency.StatusPending,
			updatedAt:   now,
			expiresAt:   now.Add(s.ttl),
		}
		return nil, nil
	}

	if rec.userID != userID || rec.operation != operation || rec.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}

	if rec.status == idempotency.StatusSuccess {
		replay := rec.replay
		replay.Body = slices.Clone(rec.replay.Body)
		return idempotency.NormalizeReplay(&replay), nil
	}
	if now.Sub(rec.updatedAt) > staleAfter {
		rec.updatedAt = now
		return nil, nil
	}
	return nil, apperror.NewIdempotencyConflict(key)
}

// CompleteKey implements idempotency.Store.
func (s *IdempotencyStore) CompleteKey(_ context.Context, key string, statusCode int, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil
	}
	rec.status = idempotency.StatusSuccess
	rec.replay = idempotency.Replay{StatusCode: statusCode, ContentType: contentType, Body: slices.Clone(body)}
	rec.updatedAt = s.now()
	return nil
}

// ReleaseKey implements idempotency.Store.
func (s *IdempotencyStore) ReleaseKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.status == idempotency.StatusPending {
		delete(s.records, key)
	}
	return nil
}

// CleanupExpired implements idempotency.Store.
func (s *IdempotencyStore) CleanupExpired(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for k, rec := range s.records {
		if now.After(rec.expiresAt) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}
