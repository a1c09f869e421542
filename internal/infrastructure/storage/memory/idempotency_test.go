package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
)

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Hour)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	replay, err := s.AcquireKey(ctx, "k1", "u1", "POST /invoices", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /invoices", "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /invoices", "other-body")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))

	require.NoError(t, s.CompleteKey(ctx, "k1", 201, "", []byte(`{"invoiceId":"INV0001"}`)))
	replay, err = s.AcquireKey(ctx, "k1", "u1", "POST /invoices", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.Equal(t, "application/json", replay.ContentType)
	assert.JSONEq(t, `{"invoiceId":"INV0001"}`, string(replay.Body))

	now = now.Add(2 * time.Hour)
	n, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestIdempotencyStore_ReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Hour)

	_, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)
	require.NoError(t, s.ReleaseKey(ctx, "k"))

	replay, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestIdempotencyStore_StalePendingIsReclaimed(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)

	now = now.Add(staleAfter + time.Second)
	replay, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)
	assert.Nil(t, replay)
}
