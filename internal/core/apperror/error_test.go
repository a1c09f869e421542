package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrappedAppErrorIsFound(t *testing.T) {
	base := NewInsufficientStock("p-1", 2, 3)
	wrapped := fmt.Errorf("place order: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, base, appErr)
	assert.True(t, HasCode(wrapped, CodeInsufficientStock))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
	assert.Equal(t, int64(2), appErr.Details["available"])
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")
	assert.False(t, IsAppError(err))
	assert.False(t, HasCode(err, CodeInternal))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
}

func TestRetryable(t *testing.T) {
	cause := errors.New("connection refused")
	assert.True(t, NewStorageUnavailable(cause).Retryable())
	assert.True(t, NewAllocationFailed("invoice", 3, cause).Retryable())
	assert.False(t, NewInvalidTotals("mismatch").Retryable())
	assert.False(t, NewValidation("bad").Retryable())
}

func TestCauseIsKeptOutOfMessage(t *testing.T) {
	cause := errors.New("pq: relation missing")
	err := NewInternal(cause)

	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by")
}

func TestStatusTransitionDetails(t *testing.T) {
	err := NewInvalidStatusTransition("invoice", "Paid", "Pending")
	assert.Equal(t, CodeInvalidStatusTransition, err.Code)
	assert.Equal(t, "invoice cannot move from Paid to Pending", err.Message)
	assert.Equal(t, map[string]any{"entity": "invoice", "from": "Paid", "to": "Pending"}, err.Details)
}

func TestWithDetailInitialisesMap(t *testing.T) {
	err := NewConflict("taken").WithDetail("field", "phone")
	assert.Equal(t, "phone", err.Details["field"])
}
