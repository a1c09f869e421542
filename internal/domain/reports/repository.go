package reports

import (
	"context"
	"time"
)

// Repository defines report data access interface.
type Repository interface {
	InvoiceSummary(ctx context.Context, from, to time.Time) ([]StatusSummary, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
	LowStock(ctx context.Context, limit int) ([]LowStockItem, error)
	CustomerCount(ctx context.Context) (int64, error)
	OpenTailoringCount(ctx context.Context) (int64, error)
}
