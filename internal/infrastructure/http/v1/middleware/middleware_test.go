package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/infrastructure/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	users map[string]*appctx.UserContext
}

func (v stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := v.users[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Trace(), ErrorHandler(), Recovery())
	r.Use(mw...)
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndPermissions(t *testing.T) {
	v := stubValidator{users: map[string]*appctx.UserContext{
		"staff": {UserID: "u1", Role: "staff", Permissions: []string{"catalog:read"}},
		"admin": {UserID: "u2", Role: "admin", IsAdmin: true},
	}}

	r := newEngine(Auth(v))
	r.GET("/read", RequirePermission("catalog:read"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/write", RequirePermission("catalog:write"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/read", "", http.StatusUnauthorized},
		{"wrong scheme", "/read", "Basic staff", http.StatusUnauthorized},
		{"invalid token", "/read", "Bearer nope", http.StatusUnauthorized},
		{"granted", "/read", "Bearer staff", http.StatusOK},
		{"not granted", "/write", "Bearer staff", http.StatusForbidden},
		{"admin bypass", "/write", "Bearer admin", http.StatusOK},
		{"role denied", "/admin", "Bearer staff", http.StatusForbidden},
		{"role granted", "/admin", "bearer admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := do(r, http.MethodGet, tt.path, "", headers)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestErrorHandlerWritesAppError(t *testing.T) {
	r := newEngine()
	r.GET("/stock", func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientStock("PRD0001", 2, 5))
	})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("db exploded")) })

	w := do(r, http.MethodGet, "/stock", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInsufficientStock)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = do(r, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)

	w = do(r, http.MethodGet, "/plain", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db exploded")
}

func TestTraceHonoursIncomingRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetRequestID(c.Request.Context()))
	})

	w := do(r, http.MethodGet, "/", "", map[string]string{HeaderRequestID: "req-42"})
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}

func TestIdempotencyReplaysCompletedResponse(t *testing.T) {
	store := memory.NewIdempotencyStore(0)
	var calls atomic.Int32

	r := newEngine(Idempotency(store))
	r.POST("/orders", func(c *gin.Context) {
		n := calls.Add(1)
		body := []byte(`{"n":` + string(rune('0'+n)) + `}`)
		CompleteIdempotency(c, http.StatusCreated, "application/json", body)
		c.Data(http.StatusCreated, "application/json", body)
	})

	headers := map[string]string{HeaderIdempotencyKey: "k-1"}
	first := do(r, http.MethodPost, "/orders", `{"qty":1}`, headers)
	second := do(r, http.MethodPost, "/orders", `{"qty":1}`, headers)

	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(1), calls.Load())

	mismatch := do(r, http.MethodPost, "/orders", `{"qty":2}`, headers)
	assert.Equal(t, http.StatusConflict, mismatch.Code)
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	store := memory.NewIdempotencyStore(0)
	var calls atomic.Int32

	r := newEngine(Idempotency(store))
	r.POST("/orders", func(c *gin.Context) {
		if calls.Add(1) == 1 {
			_ = c.Error(apperror.NewStorageUnavailable(errors.New("down")))
			return
		}
		CompleteIdempotency(c, http.StatusCreated, "application/json", []byte(`{}`))
		c.Data(http.StatusCreated, "application/json", []byte(`{}`))
	})

	headers := map[string]string{HeaderIdempotencyKey: "k-2"}
	first := do(r, http.MethodPost, "/orders", `{}`, headers)
	assert.Equal(t, http.StatusServiceUnavailable, first.Code)

	retry := do(r, http.MethodPost, "/orders", `{}`, headers)
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(NewIPRateLimiter(0.001, 2)))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", "", nil).Code)

	w := do(r, http.MethodPost, "/login", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
