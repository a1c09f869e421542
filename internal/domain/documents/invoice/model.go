// Package invoice implements order placement and the invoice lifecycle.
package invoice

import (
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// transitions lists allowed moves; Delivered and Cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusDelivered, StatusCancelled},
	StatusPaid:    {StatusDelivered, StatusCancelled},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
	PaymentUPI  PaymentMethod = "UPI"
)

// IsValid reports whether m is an accepted payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// LineItem is one sold product. Name and price are snapshots taken at sale time.
type LineItem struct {
	LineNo      int         `db:"line_no" json:"lineNo"`
	ProductRef  id.ID       `db:"product_ref" json:"productRef"`
	ProductCode string      `db:"product_code" json:"productCode"`
	Name        string      `db:"name" json:"name"`
	Size        string      `db:"size" json:"size,omitempty"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	Discount    types.Money `db:"discount" json:"discount"`
	// Amount = Quantity*UnitPrice - Discount
	Amount types.Money `db:"amount" json:"amount"`
}

// Invoice is a record of a sale.
type Invoice struct {
	ID id.ID `db:"id" json:"id"`

	// InvoiceID is the human-readable identifier (INV0001)
	InvoiceID string `db:"invoice_id" json:"invoiceId"`

	// CustomerRef is empty for guest sales
	CustomerRef *id.ID `db:"customer_ref" json:"customerRef,omitempty"`

	Lines []LineItem `db:"-" json:"lineItems"`

	Subtotal           types.Money  `db:"subtotal" json:"subtotal"`
	DiscountPercentage *types.Money `db:"discount_percentage" json:"discountPercentage,omitempty"`
	DiscountAmount     types.Money  `db:"discount_amount" json:"discountAmount"`
	TaxAmount          types.Money  `db:"tax_amount" json:"taxAmount"`
	GrandTotal         types.Money  `db:"grand_total" json:"grandTotal"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Status        Status        `db:"status" json:"status"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	PaidAt      *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedBy   string     `db:"created_by" json:"createdBy"`

	Version int `db:"version" json:"version"`
}

// TransitionTo moves the invoice to status to, stamping the matching timestamp.
// Delivery of an unpaid invoice implies payment.
func (inv *Invoice) TransitionTo(to Status, now time.Time) error {
	if !to.IsValid() {
		return apperror.NewValidation("unknown invoice status").WithDetail("status", string(to))
	}
	if !CanTransition(inv.Status, to) {
		return apperror.NewInvalidStatusTransition("invoice", string(inv.Status), string(to))
	}

	switch to {
	case StatusPaid:
		inv.PaidAt = &now
	case StatusDelivered:
		if inv.PaidAt == nil {
			inv.PaidAt = &now
		}
		inv.DeliveredAt = &now
	case StatusCancelled:
		inv.CancelledAt = &now
	}
	inv.Status = to
	return nil
}

// TotalsConsistent checks grandTotal == subtotal - discountAmount + taxAmount within tolerance.
func (inv *Invoice) TotalsConsistent() bool {
	want := inv.Subtotal.Sub(inv.DiscountAmount).Add(inv.TaxAmount)
	return types.MoneyClose(want, inv.GrandTotal)
}
