package handlers

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/domain/documents/invoice"
	"uniformshop/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves order placement and the invoice lifecycle.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/invoices
// Each call is a new sale. Retries of the same request are deduplicated only via X-Idempotency-Key.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.PlaceOrder(c.Request.Context(), order)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromInvoice(inv))
}

// List handles GET /documents/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var q dto.InvoiceListQuery
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
	h.OK(c, dto.FromListResult(result, dto.FromInvoice))
}

// Get handles GET /documents/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// GetByNumber handles GET /documents/invoices/by-number/:invoiceId
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	inv, err := h.service.GetByInvoiceID(c.Request.Context(), c.Param("invoiceId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// UpdateStatus handles POST /documents/invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInvoiceStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.UpdateStatus(c.Request.Context(), invoiceID, invoice.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}
