package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"uniformshop/internal/core/tx"
	"uniformshop/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info.
const Version = "0.1.0"

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	driver string
	pinger tx.Pinger
	// pool is nil for the memory driver
	pool *postgres.Pool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(driver string, pinger tx.Pinger, pool *postgres.Pool) *HealthHandler {
	return &HealthHandler{driver: driver, pinger: pinger, pool: pool}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"storage": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"storage": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "uniformshop",
		"version": Version,
		"storage": h.driver,
	}
	if h.pool != nil {
		stat := h.pool.Stats()
		info["database"] = map[string]any{
			"total_conns":    stat.TotalConns,
			"acquired_conns": stat.AcquiredConns,
			"idle_conns":     stat.IdleConns,
			"max_conns":      stat.MaxConns,
		}
	}
	c.JSON(http.StatusOK, info)
}
