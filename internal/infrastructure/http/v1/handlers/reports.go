package handlers

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/domain/reports"
	"uniformshop/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Dashboard handles GET /reports/dashboard
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	var req dto.DashboardRequest
	if !h.BindQuery(c, &req) {
		return
	}

	d, err := h.service.Dashboard(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}
