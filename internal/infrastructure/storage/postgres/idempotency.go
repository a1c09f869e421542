package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/idempotency"
)

// stalePendingAfter is how long a pending key may stay unfinished before a retry can reclaim it.
const stalePendingAfter = time.Minute

var _ idempotency.Store = (*IdempotencyStore)(nil)

// IdempotencyStore manages idempotency keys in sys_idempotency.
// It works on the pool directly: key bookkeeping must survive a rolled back business transaction.
type IdempotencyStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(pool *Pool, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{pool: pool.Pool, ttl: ttl}
}

type idempotencyRow struct {
	Inserted    bool
	UserID      string
	Operation   string
	Status      idempotency.Status
	RequestHash string
	Response    []byte
	StatusCode  *int
	ContentType *string
	UpdatedAt   time.Time
}

// AcquireKey implements idempotency.Store.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	now := time.Now().UTC()

	// An expired record is overwritten as if it never existed.
	var rec idempotencyRow
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			user_id = CASE WHEN sys_idempotency.expires_at < $6 THEN EXCLUDED.user_id ELSE sys_idempotency.user_id END,
			operation = CASE WHEN sys_idempotency.expires_at < $6 THEN EXCLUDED.operation ELSE sys_idempotency.operation END,
			request_hash = CASE WHEN sys_idempotency.expires_at < $6 THEN EXCLUDED.request_hash ELSE sys_idempotency.request_hash END,
			status = CASE WHEN sys_idempotency.expires_at < $6 THEN EXCLUDED.status ELSE sys_idempotency.status END,
			response = CASE WHEN sys_idempotency.expires_at < $6 THEN NULL ELSE sys_idempotency.response END,
			updated_at = CASE WHEN sys_idempotency.expires_at < $6 THEN $6 ELSE sys_idempotency.updated_at END,
			expires_at = GREATEST(sys_idempotency.expires_at, $7)
		RETURNING (xmax = 0) OR updated_at = $6, user_id, operation, status, request_hash,
			response, response_status, response_content_type, updated_at
	`, key, userID, operation, idempotency.StatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&rec.Inserted, &rec.UserID, &rec.Operation, &rec.Status, &rec.RequestHash,
		&rec.Response, &rec.StatusCode, &rec.ContentType, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, apperror.NewStorageUnavailable(fmt.Errorf("acquire idempotency key: %w", err))
	}

	if rec.Inserted {
		return nil, nil
	}

	if rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}

	switch rec.Status {
	case idempotency.StatusSuccess:
		replay := &idempotency.Replay{Body: rec.Response}
		if rec.StatusCode != nil {
			replay.StatusCode = *rec.StatusCode
		}
		if rec.ContentType != nil {
			replay.ContentType = *rec.ContentType
		}
		return idempotency.NormalizeReplay(replay), nil

	case idempotency.StatusPending:
		if now.Sub(rec.UpdatedAt) <= stalePendingAfter {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		// Likely a crashed request: reclaim unless a concurrent retry got there first.
		tag, err := s.pool.Exec(ctx, `
			UPDATE sys_idempotency SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
		`, now, key, idempotency.StatusPending, rec.UpdatedAt)
		if err != nil {
			return nil, apperror.NewStorageUnavailable(fmt.Errorf("reclaim stale key: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		return nil, nil
	}

	return nil, nil
}

// CompleteKey implements idempotency.Store.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE idempotency_key = $6
	`, idempotency.StatusSuccess, body, statusCode, contentType, time.Now().UTC(), key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// ReleaseKey implements idempotency.Store.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2
	`, key, idempotency.StatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired implements idempotency.Store.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}
