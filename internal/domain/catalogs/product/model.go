// Package product provides the product catalog: uniforms and accessories on sale.
package product

import (
	"context"
	"strings"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
)

// Product is a sellable catalog item.
type Product struct {
	ID id.ID `db:"id" json:"id"`

	// ProductID is the human-readable identifier (PRD0001)
	ProductID string `db:"product_id" json:"productId"`

	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category"`
	Size     string `db:"size" json:"size"`

	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// StockQuantity never goes below zero; it only moves through atomic increments and decrements.
	StockQuantity int64 `db:"stock_quantity" json:"stockQuantity"`

	LowStockThreshold int64 `db:"low_stock_threshold" json:"lowStockThreshold"`

	Description *string `db:"description" json:"description,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a product with required fields.
func New(name, category, size string, unitPrice types.Money) *Product {
	return &Product{
		ID:        id.New(),
		Name:      name,
		Category:  category,
		Size:      size,
		UnitPrice: unitPrice,
	}
}

// Validate checks product invariants.
func (p *Product) Validate(_ context.Context) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Size = strings.TrimSpace(p.Size)

	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(p.Name) > 200 {
		return apperror.NewValidation("name is too long").WithDetail("field", "name")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").WithDetail("field", "unitPrice")
	}
	if p.StockQuantity < 0 {
		return apperror.NewValidation("stock quantity cannot be negative").WithDetail("field", "stockQuantity")
	}
	if p.LowStockThreshold < 0 {
		return apperror.NewValidation("low stock threshold cannot be negative").WithDetail("field", "lowStockThreshold")
	}
	return nil
}

// IsLowStock reports whether stock has reached the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// NewInvalidStockChange reports a stock change that is not a positive quantity.
func NewInvalidStockChange(qty int64) error {
	return apperror.NewValidation("stock quantity change must be positive").WithDetail("quantity", qty)
}

// NewStockOverflow reports an increment that would not fit in the stock counter.
func NewStockOverflow(productID string, qty int64) error {
	return apperror.NewValidation("stock quantity too large").
		WithDetail("productId", productID).
		WithDetail("quantity", qty)
}
