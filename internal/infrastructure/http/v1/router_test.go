package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"uniformshop/internal/domain/auth"
	"uniformshop/internal/infrastructure/metrics"
	"uniformshop/internal/infrastructure/numerator"
	"uniformshop/internal/infrastructure/storage"
	"uniformshop/pkg/logger"
)

type testAPI struct {
	t       *testing.T
	router  *gin.Engine
	backend *storage.Backend
}

func newTestAPI(t *testing.T, idempotency bool) *testAPI {
	t.Helper()

	backend := storage.NewMemory(time.Hour)
	gen := numerator.New(backend.Counters, numerator.Options{})
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))

	authCfg := auth.DefaultServiceConfig()
	authCfg.BcryptCost = bcrypt.MinCost
	authService := auth.NewService(backend.Users, jwtService, authCfg)

	ctx := context.Background()
	for _, u := range []auth.CreateUserRequest{
		{Email: "admin@shop.test", Password: "admin-pass", Name: "Admin", Role: auth.RoleAdmin},
		{Email: "staff@shop.test", Password: "staff-pass", Name: "Staff", Role: auth.RoleStaff},
	} {
		_, err := authService.CreateUser(ctx, u)
		require.NoError(t, err)
	}

	router := NewRouter(RouterConfig{
		Logger:             logger.NewNop(),
		Backend:            backend,
		Numerator:          gen,
		JWTValidator:       jwtService,
		AuthService:        authService,
		Metrics:            metrics.New(),
		IdempotencyEnabled: idempotency,
		LoginRateRPS:       100,
		LoginRateBurst:     100,
		Mode:               gin.TestMode,
	})
	return &testAPI{t: t, router: router, backend: backend}
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) (int, map[string]any) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": email, "password": password,
	})
	require.Equal(a.t, http.StatusOK, code, body)
	return body["token"].(map[string]any)["accessToken"].(string)
}

func (a *testAPI) createProduct(token, name string, price string, stock int) map[string]any {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/catalog/products", token, map[string]any{
		"name": name, "category": "Shirts", "size": "M",
		"unitPrice": price, "stockQuantity": stock, "lowStockThreshold": 1,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return body
}

func money(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v.(string))
	require.NoError(t, err)
	return d
}

func TestOrderFlow(t *testing.T) {
	api := newTestAPI(t, false)
	admin := api.login("admin@shop.test", "admin-pass")

	shirt := api.createProduct(admin, "School shirt", "100.00", 5)
	assert.Equal(t, "PRD0001", shirt["productId"])
	shirtID := shirt["id"].(string)

	code, inv := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, map[string]any{
		"lineItems":     []map[string]any{{"productRef": shirtID, "quantity": 3}},
		"paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, code, inv)
	assert.Equal(t, "INV0001", inv["invoiceId"])
	assert.Equal(t, "Pending", inv["status"])
	assert.True(t, money(t, inv["grandTotal"]).Equal(decimal.NewFromInt(300)))

	_, p := api.do(http.MethodGet, "/api/v1/catalog/products/"+shirtID, admin, nil)
	assert.Equal(t, float64(2), p["stockQuantity"])

	code, failed := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, map[string]any{
		"lineItems":     []map[string]any{{"productRef": shirtID, "quantity": 3}},
		"paymentMethod": "Card",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", failed["code"])
	details := failed["details"].(map[string]any)
	assert.Equal(t, float64(2), details["available"])
	assert.Equal(t, float64(3), details["requested"])

	_, p = api.do(http.MethodGet, "/api/v1/catalog/products/"+shirtID, admin, nil)
	assert.Equal(t, float64(2), p["stockQuantity"], "failed order leaves stock untouched")

	invID := inv["id"].(string)
	code, paid := api.do(http.MethodPost, "/api/v1/documents/invoices/"+invID+"/status", admin, map[string]any{"status": "Paid"})
	require.Equal(t, http.StatusOK, code, paid)
	assert.Equal(t, "Paid", paid["status"])

	code, back := api.do(http.MethodPost, "/api/v1/documents/invoices/"+invID+"/status", admin, map[string]any{"status": "Pending"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", back["code"])

	code, _ = api.do(http.MethodPost, "/api/v1/documents/invoices/"+invID+"/status", admin, map[string]any{"status": "Cancelled"})
	require.Equal(t, http.StatusOK, code)
	_, p = api.do(http.MethodGet, "/api/v1/catalog/products/"+shirtID, admin, nil)
	assert.Equal(t, float64(5), p["stockQuantity"], "cancellation restores stock")

	code, byNumber := api.do(http.MethodGet, "/api/v1/documents/invoices/by-number/INV0001", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, invID, byNumber["id"])
}

func TestOrderTotals(t *testing.T) {
	api := newTestAPI(t, false)
	admin := api.login("admin@shop.test", "admin-pass")

	a := api.createProduct(admin, "Blazer", "100", 10)["id"].(string)
	b := api.createProduct(admin, "Tie", "50", 10)["id"].(string)

	lines := []map[string]any{
		{"productRef": a, "quantity": 2, "discount": "0"},
		{"productRef": b, "quantity": 1, "discount": "10"},
	}

	code, inv := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, map[string]any{
		"lineItems": lines, "paymentMethod": "UPI", "taxAmount": "18",
	})
	require.Equal(t, http.StatusCreated, code, inv)
	assert.True(t, money(t, inv["subtotal"]).Equal(decimal.NewFromInt(240)))
	assert.True(t, money(t, inv["grandTotal"]).Equal(decimal.NewFromInt(258)))

	code, bad := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, map[string]any{
		"lineItems": lines, "paymentMethod": "UPI", "taxAmount": "18", "grandTotal": "300",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_TOTALS", bad["code"])

	code, invalid := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, map[string]any{
		"lineItems": lines, "paymentMethod": "Cheque",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", invalid["code"])
}

func TestPermissions(t *testing.T) {
	api := newTestAPI(t, false)
	admin := api.login("admin@shop.test", "admin-pass")
	staff := api.login("staff@shop.test", "staff-pass")

	code, _ := api.do(http.MethodGet, "/api/v1/catalog/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodGet, "/api/v1/catalog/products", staff, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodPost, "/api/v1/catalog/products", staff, map[string]any{"name": "X", "unitPrice": "1"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodGet, "/api/v1/reports/dashboard", staff, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPost, "/api/v1/admin/counters/invoice/reset", staff, map[string]any{"value": 0})
	assert.Equal(t, http.StatusForbidden, code)

	code, me := api.do(http.MethodGet, "/api/v1/auth/me", staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "staff", me["role"])

	code, _ = api.do(http.MethodGet, "/api/v1/reports/dashboard", admin, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCounterAdministration(t *testing.T) {
	api := newTestAPI(t, false)
	admin := api.login("admin@shop.test", "admin-pass")

	code, body := api.do(http.MethodPost, "/api/v1/admin/counters/invoice/reset", admin, map[string]any{"value": 6})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "INV0007", body["next"])

	id := api.createProduct(admin, "Skirt", "80", 4)["id"].(string)
	code, inv := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, map[string]any{
		"lineItems":     []map[string]any{{"productRef": id, "quantity": 1}},
		"paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, code, inv)
	assert.Equal(t, "INV0007", inv["invoiceId"])

	code, counter := api.do(http.MethodGet, "/api/v1/admin/counters/invoice", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(7), counter["value"])

	code, _ = api.do(http.MethodGet, "/api/v1/admin/counters/unknown", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestIdempotentOrderRetry(t *testing.T) {
	api := newTestAPI(t, true)
	admin := api.login("admin@shop.test", "admin-pass")
	id := api.createProduct(admin, "Socks", "20", 10)["id"].(string)

	order := map[string]any{
		"lineItems":     []map[string]any{{"productRef": id, "quantity": 2}},
		"paymentMethod": "Cash",
	}

	code, first := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, order, "X-Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, code, first)
	code, retry := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, order, "X-Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, code, retry)
	assert.Equal(t, first["invoiceId"], retry["invoiceId"])

	// Without a key every call is a new sale.
	code, second := api.do(http.MethodPost, "/api/v1/documents/invoices", admin, order)
	require.Equal(t, http.StatusCreated, code, second)
	assert.NotEqual(t, first["invoiceId"], second["invoiceId"])

	_, p := api.do(http.MethodGet, "/api/v1/catalog/products/"+id, admin, nil)
	assert.Equal(t, float64(6), p["stockQuantity"])
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, false)

	code, body := api.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = api.do(http.MethodGet, "/health/info", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "memory", body["storage"])
}
