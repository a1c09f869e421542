package handlers

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/domain/documents/tailoring"
	"uniformshop/internal/infrastructure/http/v1/dto"
)

// TailoringHandler serves tailoring orders.
type TailoringHandler struct {
	*BaseHandler
	service *tailoring.Service
}

// NewTailoringHandler creates a new tailoring handler.
func NewTailoringHandler(base *BaseHandler, service *tailoring.Service) *TailoringHandler {
	return &TailoringHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/tailoring
func (h *TailoringHandler) Create(c *gin.Context) {
	var req dto.CreateTailoringOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromTailoringOrder(o))
}

// List handles GET /documents/tailoring
func (h *TailoringHandler) List(c *gin.Context) {
	var q dto.TailoringListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromTailoringOrder))
}

// Get handles GET /documents/tailoring/:id
func (h *TailoringHandler) Get(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTailoringOrder(o))
}

// UpdateStatus handles POST /documents/tailoring/:id/status
func (h *TailoringHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTailoringStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), orderID, tailoring.Status(req.Status), req.Payment)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTailoringOrder(o))
}
