package product

import (
	"context"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

// ListFilter narrows product listings.
type ListFilter struct {
	domain.ListFilter

	Category string
	Size     string
	// LowStockOnly keeps products with stock at or below their threshold.
	LowStockOnly bool
}

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id id.ID) (*Product, error)
	GetByProductID(ctx context.Context, productID string) (*Product, error)
	// GetMany returns the products that exist among ids; missing ids are simply absent.
	GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	// Update changes descriptive fields with optimistic locking on Version.
	// Stock is never written by Update.
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// DecrementStock atomically subtracts qty if enough stock is available and returns the
	// remaining quantity. A refused decrement yields INSUFFICIENT_STOCK with the available amount.
	DecrementStock(ctx context.Context, id id.ID, qty int64) (int64, error)

	// IncrementStock atomically adds qty and returns the new quantity.
	IncrementStock(ctx context.Context, id id.ID, qty int64) (int64, error)
}
