package handlers

import (
	"github.com/gin-gonic/gin"

	"uniformshop/internal/domain/catalogs/customer"
	"uniformshop/internal/infrastructure/http/v1/dto"
)

// CustomerHandler serves customer records.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, service: service}
}

// List handles GET /catalog/customers
func (h *CustomerHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromCustomer))
}

// Get handles GET /catalog/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	cust, err := h.service.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCustomer(cust))
}

// Create handles POST /catalog/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), cust); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCustomer(cust))
}

// Update handles PUT /catalog/customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	customerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.GetByID(ctx, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(cust)

	if err := h.service.Update(ctx, cust); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCustomer(cust))
}

// Delete handles DELETE /catalog/customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	customerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), customerID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
