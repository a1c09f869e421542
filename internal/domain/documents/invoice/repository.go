package invoice

import (
	"context"
	"time"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/catalogs/product"
)

// ListFilter narrows invoice listings.
type ListFilter struct {
	domain.ListFilter

	Status      *Status
	CustomerRef *id.ID
	From        *time.Time
	To          *time.Time
}

// Repository defines persistence for invoices.
type Repository interface {
	// Create stores the header and its lines.
	Create(ctx context.Context, inv *Invoice) error
	// GetByID loads an invoice with lines.
	GetByID(ctx context.Context, id id.ID) (*Invoice, error)
	GetByInvoiceID(ctx context.Context, invoiceID string) (*Invoice, error)
	// UpdateStatus persists status and timestamps when the stored version still equals
	// inv.Version, then bumps inv.Version. A mismatch yields CONCURRENT_MODIFICATION.
	UpdateStatus(ctx context.Context, inv *Invoice) error
	// List returns headers only; Lines stay nil.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}

// StockStore is the slice of the product catalog used by order placement.
// product.Repository satisfies it.
type StockStore interface {
	GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error)
	DecrementStock(ctx context.Context, id id.ID, qty int64) (int64, error)
	IncrementStock(ctx context.Context, id id.ID, qty int64) (int64, error)
}

// CustomerChecker verifies that a referenced customer exists.
type CustomerChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}
