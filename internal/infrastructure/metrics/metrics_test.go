package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/infrastructure/storage/postgres"
)

func TestObserveAllocation(t *testing.T) {
	m := New()

	m.ObserveAllocation("invoice", 1, nil)
	m.ObserveAllocation("invoice", 3, apperror.NewAllocationFailed("invoice", 3, errors.New("down")))
	m.ObserveAllocation("invoice", 1, errors.New("plain"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocations.WithLabelValues("invoice", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocations.WithLabelValues("invoice", apperror.CodeAllocationFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.allocations.WithLabelValues("invoice", "failure")))
}

func TestOrderAndStatusCounters(t *testing.T) {
	m := New()
	m.ObserveOrder("success", 10*time.Millisecond)
	m.ObserveOrder("insufficient_stock", time.Millisecond)
	m.ObserveStatusChange("Pending", "Paid")
	m.ObserveOutbox("published", 4)
	m.ObserveOutbox("failed", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("Pending", "Paid")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.outboxMessages.WithLabelValues("published")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.outboxMessages), "zero adds create no series")
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/items/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `uniformshop_http_requests_total{method="GET",route="/items/:id",status="204"} 1`)
}

type fakePool struct{ stats postgres.PoolStats }

func (f *fakePool) Stats() postgres.PoolStats { return f.stats }

func TestRegisterPool(t *testing.T) {
	m := New()
	src := &fakePool{stats: postgres.PoolStats{TotalConns: 4, AcquiredConns: 1, IdleConns: 3, MaxConns: 20}}
	m.RegisterPool(src)

	out, err := m.Registry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range out {
		if len(mf.GetMetric()) == 1 && mf.GetMetric()[0].GetGauge() != nil {
			values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 4.0, values["uniformshop_db_pool_total_conns"])
	assert.Equal(t, 20.0, values["uniformshop_db_pool_max_conns"])

	// Gauges are read at scrape time.
	src.stats.AcquiredConns = 7
	out, err = m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range out {
		if mf.GetName() == "uniformshop_db_pool_acquired_conns" {
			assert.Equal(t, 7.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}
