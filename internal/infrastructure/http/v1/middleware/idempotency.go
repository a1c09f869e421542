package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"uniformshop/internal/core/apperror"
	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/core/idempotency"
	"uniformshop/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// Gin context keys shared with handlers.
const (
	ContextIdempotencyKey   = "idempotency_key"
	ContextIdempotencyStore = "idempotency_store"
	ContextIdempotencyDone  = "idempotency_done"
)

// Idempotency middleware protects against duplicate requests.
// Handlers record the successful response through the stored key; any request
// that ends without doing so releases the key so the client can retry.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > 255 {
			_ = c.Error(apperror.NewValidation("idempotency key too long").WithDetail("max_length", 255))
			c.Abort()
			return
		}

		userID := appctx.GetUserID(c.Request.Context())

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			replay = idempotency.NormalizeReplay(replay)
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(ContextIdempotencyKey, key)
		c.Set(ContextIdempotencyStore, store)

		c.Next()

		if c.GetBool(ContextIdempotencyDone) {
			return
		}
		ctx := appctx.Detach(c.Request.Context())
		if err := store.ReleaseKey(ctx, key); err != nil {
			logger.Warn(ctx, "idempotency key release failed", "key", key, "error", err)
		}
	}
}

// CompleteIdempotency stores a successful response under the request's key, if any,
// so a retry replays the same status, content type and body.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, body []byte) {
	key := c.GetString(ContextIdempotencyKey)
	if key == "" {
		return
	}
	store, ok := c.MustGet(ContextIdempotencyStore).(idempotency.Store)
	if !ok {
		return
	}
	if err := store.CompleteKey(c.Request.Context(), key, statusCode, contentType, body); err != nil {
		logger.Warn(c.Request.Context(), "idempotency key completion failed", "key", key, "error", err)
		return
	}
	c.Set(ContextIdempotencyDone, true)
}
