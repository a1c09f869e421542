package dto

import (
	"time"

	"uniformshop/internal/core/types"
	"uniformshop/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest for adding a catalog item. productId is allocated by the server.
type CreateProductRequest struct {
	Name              string      `json:"name" binding:"required,max=200"`
	Category          string      `json:"category"`
	Size              string      `json:"size"`
	UnitPrice         types.Money `json:"unitPrice"`
	StockQuantity     int64       `json:"stockQuantity" binding:"gte=0"`
	LowStockThreshold int64       `json:"lowStockThreshold" binding:"gte=0"`
	Description       *string     `json:"description"`
}

// ToEntity converts to the domain model.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Name, r.Category, r.Size, r.UnitPrice)
	p.StockQuantity = r.StockQuantity
	p.LowStockThreshold = r.LowStockThreshold
	p.Description = r.Description
	return p
}

// UpdateProductRequest changes descriptive fields. Stock is not writable here.
type UpdateProductRequest struct {
	Name              *string      `json:"name"`
	Category          *string      `json:"category"`
	Size              *string      `json:"size"`
	UnitPrice         *types.Money `json:"unitPrice"`
	LowStockThreshold *int64       `json:"lowStockThreshold"`
	Description       *string      `json:"description"`
	Version           int          `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the supplied fields onto p.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Size != nil {
		p.Size = *r.Size
	}
	if r.UnitPrice != nil {
		p.UnitPrice = *r.UnitPrice
	}
	if r.LowStockThreshold != nil {
		p.LowStockThreshold = *r.LowStockThreshold
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	p.Version = r.Version
}

// RestockRequest adds units to stock.
type RestockRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Reason   string `json:"reason"`
}

// ProductListQuery adds catalog filters to ListQuery.
type ProductListQuery struct {
	ListQuery
	Category string `form:"category"`
	Size     string `form:"size"`
	LowStock bool   `form:"lowStock"`
}

// ToFilter converts to the product filter.
func (q ProductListQuery) ToFilter() product.ListFilter {
	return product.ListFilter{
		ListFilter:   q.ListQuery.ToFilter(),
		Category:     q.Category,
		Size:         q.Size,
		LowStockOnly: q.LowStock,
	}
}

// --- Response DTOs ---

// ProductResponse is a catalog item.
type ProductResponse struct {
	ID                string      `json:"id"`
	ProductID         string      `json:"productId"`
	Name              string      `json:"name"`
	Category          string      `json:"category"`
	Size              string      `json:"size"`
	UnitPrice         types.Money `json:"unitPrice"`
	StockQuantity     int64       `json:"stockQuantity"`
	LowStockThreshold int64       `json:"lowStockThreshold"`
	LowStock          bool        `json:"lowStock"`
	Description       *string     `json:"description,omitempty"`
	Version           int         `json:"version"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// FromProduct creates response from domain product.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID.String(),
		ProductID:         p.ProductID,
		Name:              p.Name,
		Category:          p.Category,
		Size:              p.Size,
		UnitPrice:         p.UnitPrice,
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		Description:       p.Description,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
