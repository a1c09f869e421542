package tailoring

import (
	"context"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

// ListFilter narrows tailoring order listings.
type ListFilter struct {
	domain.ListFilter

	Status      *Status
	CustomerRef *id.ID
}

// Repository defines persistence for tailoring orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id id.ID) (*Order, error)
	// Update writes the order when the stored version equals o.Version, then bumps it.
	Update(ctx context.Context, o *Order) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
}

// CustomerChecker verifies that a referenced customer exists.
type CustomerChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}
