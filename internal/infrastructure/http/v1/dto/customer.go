package dto

import (
	"time"

	"uniformshop/internal/domain/catalogs/customer"
)

// CreateCustomerRequest for registering a customer. customerId is allocated by the server.
type CreateCustomerRequest struct {
	Name         string            `json:"name" binding:"required,max=200"`
	Phone        *string           `json:"phone"`
	Email        *string           `json:"email"`
	Address      *string           `json:"address"`
	Measurements map[string]string `json:"measurements"`
	Notes        *string           `json:"notes"`
}

// ToEntity converts to the domain model.
func (r *CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.New(r.Name)
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.Measurements = r.Measurements
	c.Notes = r.Notes
	return c
}

// UpdateCustomerRequest carries the fields to change.
type UpdateCustomerRequest struct {
	Name         *string           `json:"name"`
	Phone        *string           `json:"phone"`
	Email        *string           `json:"email"`
	Address      *string           `json:"address"`
	Measurements map[string]string `json:"measurements"`
	Notes        *string           `json:"notes"`
	Version      int               `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the supplied fields onto c.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	if r.Measurements != nil {
		c.Measurements = r.Measurements
	}
	if r.Notes != nil {
		c.Notes = r.Notes
	}
	c.Version = r.Version
}

// CustomerResponse is a customer record.
type CustomerResponse struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customerId"`
	Name         string            `json:"name"`
	Phone        *string           `json:"phone,omitempty"`
	Email        *string           `json:"email,omitempty"`
	Address      *string           `json:"address,omitempty"`
	Measurements map[string]string `json:"measurements,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	Version      int               `json:"version"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// FromCustomer creates response from domain customer.
func FromCustomer(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           c.ID.String(),
		CustomerID:   c.CustomerID,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      c.Address,
		Measurements: c.Measurements,
		Notes:        c.Notes,
		Version:      c.Version,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
