// Package reports provides the management dashboard.
package reports

import (
	"time"

	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
)

// DashboardFilter selects the reporting window.
type DashboardFilter struct {
	From time.Time
	To   time.Time

	// LowStockLimit caps the low-stock list (default 20)
	LowStockLimit int
	// TopProductsLimit caps the best-seller list (default 5)
	TopProductsLimit int
}

// StatusSummary aggregates invoices of one status.
type StatusSummary struct {
	Status string      `json:"status" db:"status"`
	Count  int64       `json:"count" db:"count"`
	Total  types.Money `json:"total" db:"total"`
}

// LowStockItem is a product at or below its alert threshold.
type LowStockItem struct {
	ID                id.ID  `json:"id" db:"id"`
	ProductID         string `json:"productId" db:"product_id"`
	Name              string `json:"name" db:"name"`
	Size              string `json:"size" db:"size"`
	StockQuantity     int64  `json:"stockQuantity" db:"stock_quantity"`
	LowStockThreshold int64  `json:"lowStockThreshold" db:"low_stock_threshold"`
}

// ProductSales is a best-seller row.
type ProductSales struct {
	ProductRef id.ID       `json:"productRef" db:"product_ref"`
	Name       string      `json:"name" db:"name"`
	Quantity   int64       `json:"quantity" db:"quantity"`
	Revenue    types.Money `json:"revenue" db:"revenue"`
}

// Dashboard is the management overview.
type Dashboard struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	InvoicesByStatus []StatusSummary `json:"invoicesByStatus"`
	InvoiceCount     int64           `json:"invoiceCount"`
	// Revenue sums grand totals of invoices that were not cancelled.
	Revenue           types.Money `json:"revenue"`
	AverageOrderValue types.Money `json:"averageOrderValue"`

	TopProducts        []ProductSales `json:"topProducts"`
	LowStock           []LowStockItem `json:"lowStock"`
	CustomerCount      int64          `json:"customerCount"`
	OpenTailoringCount int64          `json:"openTailoringCount"`
}
