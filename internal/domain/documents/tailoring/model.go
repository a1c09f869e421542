// Package tailoring tracks made-to-measure orders from intake to delivery.
package tailoring

import (
	"context"
	"strings"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
)

// Status of a tailoring order.
type Status string

const (
	StatusReceived   Status = "Received"
	StatusInProgress Status = "InProgress"
	StatusReady      Status = "Ready"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

var transitions = map[Status][]Status{
	StatusReceived:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusReady, StatusCancelled},
	StatusReady:      {StatusDelivered},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
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

// Order is a tailoring job for one customer.
type Order struct {
	ID id.ID `db:"id" json:"id"`

	// OrderNo is the human-readable identifier (TLR0001)
	OrderNo string `db:"order_no" json:"orderNo"`

	CustomerRef  id.ID             `db:"customer_ref" json:"customerRef"`
	Garment      string            `db:"garment" json:"garment"`
	Measurements map[string]string `db:"measurements" json:"measurements,omitempty"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`

	Price       types.Money `db:"price" json:"price"`
	AdvancePaid types.Money `db:"advance_paid" json:"advancePaid"`

	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`
	Status  Status     `db:"status" json:"status"`

	CreatedBy   string     `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
	Version     int        `db:"version" json:"version"`
}

// Balance is the amount still owed on delivery.
func (o *Order) Balance() types.Money {
	return o.Price.Sub(o.AdvancePaid)
}

// Validate checks order invariants.
func (o *Order) Validate(_ context.Context) error {
	o.Garment = strings.TrimSpace(o.Garment)
	if id.IsNil(o.CustomerRef) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerRef")
	}
	if o.Garment == "" {
		return apperror.NewValidation("garment is required").WithDetail("field", "garment")
	}
	if o.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	if o.AdvancePaid.IsNegative() {
		return apperror.NewValidation("advance cannot be negative").WithDetail("field", "advancePaid")
	}
	if o.AdvancePaid.GreaterThan(o.Price) {
		return apperror.NewValidation("advance cannot exceed price").WithDetail("field", "advancePaid")
	}
	return nil
}

// TransitionTo moves the order along its workflow.
func (o *Order) TransitionTo(to Status, now time.Time) error {
	if !to.IsValid() {
		return apperror.NewValidation("unknown tailoring status").WithDetail("status", string(to))
	}
	if !CanTransition(o.Status, to) {
		return apperror.NewInvalidStatusTransition("tailoring order", string(o.Status), string(to))
	}
	if to == StatusDelivered {
		o.DeliveredAt = &now
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}
