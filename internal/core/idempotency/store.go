// Package idempotency defines the contract behind the X-Idempotency-Key header.
package idempotency

import (
	"context"
	"net/http"
)

// Status represents the state of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
)

// Replay is the cached HTTP response returned for a repeated request.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store tracks idempotency keys.
type Store interface {
	// AcquireKey claims key for the request.
	// Returns (nil, nil) when the caller should proceed, a Replay when the request already
	// completed, IDEMPOTENCY_CONFLICT while another attempt is in flight, and an
	// idempotency mismatch when the key was used for a different request.
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)

	// CompleteKey stores the successful response for replay.
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error

	// ReleaseKey forgets a pending key so a failed request can be retried.
	ReleaseKey(ctx context.Context, key string) error

	// CleanupExpired removes records past their TTL.
	CleanupExpired(ctx context.Context) (int64, error)
}

// NormalizeReplay fills defaults for records stored without status or content type.
func NormalizeReplay(r *Replay) *Replay {
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	if r.ContentType == "" {
		r.ContentType = "application/json"
	}
	return r
}
