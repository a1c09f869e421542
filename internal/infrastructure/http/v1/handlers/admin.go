package handlers

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/core/apperror"
	corenumerator "uniformshop/internal/core/numerator"
	"uniformshop/internal/domain"
	"uniformshop/internal/infrastructure/http/v1/dto"
)

// auditEntityTypes are the entity names accepted by the audit endpoint.
var auditEntityTypes = map[string]bool{
	"product": true, "customer": true, "invoice": true, "tailoring_order": true,
}

// AdminHandler serves administrative endpoints.
type AdminHandler struct {
	*BaseHandler
	numerator corenumerator.Generator
	history   domain.AuditHistory
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(base *BaseHandler, gen corenumerator.Generator, history domain.AuditHistory) *AdminHandler {
	return &AdminHandler{BaseHandler: base, numerator: gen, history: history}
}

func (h *AdminHandler) series(c *gin.Context) (corenumerator.Config, bool) {
	cfg, ok := corenumerator.ConfigFor(c.Param("series"))
	if !ok {
		h.Error(c, apperror.NewNotFound("series", c.Param("series")))
	}
	return cfg, ok
}

// GetCounter handles GET /admin/counters/:series
func (h *AdminHandler) GetCounter(c *gin.Context) {
	cfg, ok := h.series(c)
	if !ok {
		return
	}

	value, err := h.numerator.Current(c.Request.Context(), cfg.Series)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CounterResponse{Series: cfg.Series, Value: value, Next: cfg.Format(value + 1)})
}

// ResetCounter handles POST /admin/counters/:series/reset
func (h *AdminHandler) ResetCounter(c *gin.Context) {
	cfg, ok := h.series(c)
	if !ok {
		return
	}
	var req dto.ResetCounterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.numerator.Reset(c.Request.Context(), cfg.Series, *req.Value); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CounterResponse{Series: cfg.Series, Value: *req.Value, Next: cfg.Format(*req.Value + 1)})
}

// AuditHistory handles GET /admin/audit/:entityType/:id
func (h *AdminHandler) AuditHistory(c *gin.Context) {
	entityType := c.Param("entityType")
	if !auditEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").WithDetail("entityType", entityType))
		return
	}
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	limit := min(max(h.ParseIntQuery(c, "limit", 50), 1), 500)

	entries, err := h.history.History(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, apperror.NewStorageUnavailable(err))
		return
	}

	out := make([]dto.AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.FromAuditEntry(e)
	}
	h.OK(c, gin.H{"items": out})
}
