package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
	"uniformshop/internal/domain/documents/invoice"
)

// --- Request DTOs ---

// PlaceOrderRequest is the body of POST /documents/invoices.
type PlaceOrderRequest struct {
	CustomerRef        *string            `json:"customerRef" binding:"omitempty,uuid"`
	LineItems          []OrderLineRequest `json:"lineItems" binding:"required,min=1,dive"`
	PaymentMethod      string             `json:"paymentMethod" binding:"required,oneof=Cash Card UPI"`
	DiscountPercentage *decimal.Decimal   `json:"discountPercentage"`
	DiscountAmount     types.Money        `json:"discountAmount"`
	TaxAmount          types.Money        `json:"taxAmount"`
	GrandTotal         *types.Money       `json:"grandTotal"`
	Notes              *string            `json:"notes" binding:"omitempty,max=1000"`
}

// OrderLineRequest is one requested line.
type OrderLineRequest struct {
	ProductRef string       `json:"productRef" binding:"required,uuid"`
	Quantity   int64        `json:"quantity" binding:"required,gt=0"`
	UnitPrice  *types.Money `json:"unitPrice"`
	Discount   types.Money  `json:"discount"`
}

// ToDomain converts to the service request.
func (r *PlaceOrderRequest) ToDomain() (invoice.PlaceOrderRequest, error) {
	out := invoice.PlaceOrderRequest{
		PaymentMethod:      invoice.PaymentMethod(r.PaymentMethod),
		DiscountPercentage: r.DiscountPercentage,
		DiscountAmount:     r.DiscountAmount,
		TaxAmount:          r.TaxAmount,
		GrandTotal:         r.GrandTotal,
		Notes:              r.Notes,
		Lines:              make([]invoice.LineRequest, len(r.LineItems)),
	}

	if r.CustomerRef != nil {
		ref, err := id.ParseOptional(*r.CustomerRef)
		if err != nil {
			return out, apperror.NewValidation("invalid customer reference").WithDetail("field", "customerRef")
		}
		out.CustomerRef = ref
	}

	for i, l := range r.LineItems {
		ref, err := id.Parse(l.ProductRef)
		if err != nil {
			return out, apperror.NewValidation("invalid product reference").WithDetail("line", i+1)
		}
		out.Lines[i] = invoice.LineRequest{
			ProductRef: ref,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Discount:   l.Discount,
		}
	}
	return out, nil
}

// UpdateInvoiceStatusRequest moves an invoice through its lifecycle.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Pending Paid Delivered Cancelled"`
}

// InvoiceListQuery adds invoice filters to ListQuery.
type InvoiceListQuery struct {
	ListQuery
	Status      string     `form:"status" binding:"omitempty,oneof=Pending Paid Delivered Cancelled"`
	CustomerRef string     `form:"customerRef" binding:"omitempty,uuid"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
}

// ToFilter converts to the invoice filter. To is inclusive of the whole day.
func (q InvoiceListQuery) ToFilter() (invoice.ListFilter, error) {
	f := invoice.ListFilter{ListFilter: q.ListQuery.ToFilter(), From: q.From}
	if q.Status != "" {
		s := invoice.Status(q.Status)
		f.Status = &s
	}
	if q.CustomerRef != "" {
		ref, err := id.Parse(q.CustomerRef)
		if err != nil {
			return f, apperror.NewValidation("invalid customer reference").WithDetail("field", "customerRef")
		}
		f.CustomerRef = &ref
	}
	if q.To != nil {
		end := q.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f, nil
}

// --- Response DTOs ---

// InvoiceResponse is a persisted invoice.
type InvoiceResponse struct {
	ID                 string                `json:"id"`
	InvoiceID          string                `json:"invoiceId"`
	CustomerRef        *string               `json:"customerRef,omitempty"`
	LineItems          []InvoiceLineResponse `json:"lineItems"`
	Subtotal           types.Money           `json:"subtotal"`
	DiscountPercentage *types.Money          `json:"discountPercentage,omitempty"`
	DiscountAmount     types.Money           `json:"discountAmount"`
	TaxAmount          types.Money           `json:"taxAmount"`
	GrandTotal         types.Money           `json:"grandTotal"`
	PaymentMethod      string                `json:"paymentMethod"`
	Status             string                `json:"status"`
	Notes              *string               `json:"notes,omitempty"`
	CreatedBy          string                `json:"createdBy"`
	CreatedAt          time.Time             `json:"createdAt"`
	PaidAt             *time.Time            `json:"paidAt,omitempty"`
	DeliveredAt        *time.Time            `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time            `json:"cancelledAt,omitempty"`
	Version            int                   `json:"version"`
}

// InvoiceLineResponse is one sold line.
type InvoiceLineResponse struct {
	LineNo      int         `json:"lineNo"`
	ProductRef  string      `json:"productRef"`
	ProductCode string      `json:"productCode"`
	Name        string      `json:"name"`
	Size        string      `json:"size,omitempty"`
	UnitPrice   types.Money `json:"unitPrice"`
	Quantity    int64       `json:"quantity"`
	Discount    types.Money `json:"discount"`
	Amount      types.Money `json:"amount"`
}

// FromInvoice creates response from domain invoice.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                 inv.ID.String(),
		InvoiceID:          inv.InvoiceID,
		Subtotal:           inv.Subtotal,
		DiscountPercentage: inv.DiscountPercentage,
		DiscountAmount:     inv.DiscountAmount,
		TaxAmount:          inv.TaxAmount,
		GrandTotal:         inv.GrandTotal,
		PaymentMethod:      string(inv.PaymentMethod),
		Status:             string(inv.Status),
		Notes:              inv.Notes,
		CreatedBy:          inv.CreatedBy,
		CreatedAt:          inv.CreatedAt,
		PaidAt:             inv.PaidAt,
		DeliveredAt:        inv.DeliveredAt,
		CancelledAt:        inv.CancelledAt,
		Version:            inv.Version,
	}
	if inv.CustomerRef != nil {
		ref := inv.CustomerRef.String()
		resp.CustomerRef = &ref
	}

	resp.LineItems = make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		resp.LineItems[i] = InvoiceLineResponse{
			LineNo:      l.LineNo,
			ProductRef:  l.ProductRef.String(),
			ProductCode: l.ProductCode,
			Name:        l.Name,
			Size:        l.Size,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Discount:    l.Discount,
			Amount:      l.Amount,
		}
	}
	return resp
}
