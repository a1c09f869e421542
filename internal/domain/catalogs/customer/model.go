// Package customer provides the customer catalog.
package customer

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
)

// Customer is a shop client. Guest sales carry no customer at all.
type Customer struct {
	ID id.ID `db:"id" json:"id"`

	// CustomerID is the human-readable identifier (CUS0001)
	CustomerID string `db:"customer_id" json:"customerId"`

	Name    string  `db:"name" json:"name"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`

	// Measurements holds free-form body measurements used for tailoring (chest, waist...).
	Measurements map[string]string `db:"measurements" json:"measurements,omitempty"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a customer with required fields.
func New(name string) *Customer {
	return &Customer{ID: id.New(), Name: name}
}

// Validate checks customer invariants and normalizes contact fields.
func (c *Customer) Validate(_ context.Context) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	c.Phone = trimmed(c.Phone)
	c.Email = trimmed(c.Email)

	if c.Phone != nil && !validPhone(*c.Phone) {
		return apperror.NewValidation("invalid phone number").WithDetail("field", "phone")
	}
	if c.Email != nil {
		if _, err := mail.ParseAddress(*c.Email); err != nil {
			return apperror.NewValidation("invalid email").WithDetail("field", "email")
		}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// validPhone accepts digits with an optional leading + and common separators.
func validPhone(p string) bool {
	digits := 0
	for i, r := range p {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}
