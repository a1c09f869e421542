package customer

import (
	"context"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id id.ID) (*Customer, error)
	GetByCustomerID(ctx context.Context, customerID string) (*Customer, error)
	// FindByPhone returns NOT_FOUND when no customer has that phone.
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error)
	Exists(ctx context.Context, id id.ID) (bool, error)
}
