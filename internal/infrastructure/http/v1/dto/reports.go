package dto

import (
	"time"

	"uniformshop/internal/domain/reports"
)

// DashboardRequest selects the reporting window. Dates are inclusive days.
type DashboardRequest struct {
	From             *time.Time `form:"from" time_format:"2006-01-02"`
	To               *time.Time `form:"to" time_format:"2006-01-02"`
	LowStockLimit    int        `form:"lowStockLimit" binding:"omitempty,min=1,max=200"`
	TopProductsLimit int        `form:"topProducts" binding:"omitempty,min=1,max=50"`
}

// ToFilter converts to the domain filter. Missing bounds are left zero for the service to default.
func (r *DashboardRequest) ToFilter() reports.DashboardFilter {
	f := reports.DashboardFilter{
		LowStockLimit:    r.LowStockLimit,
		TopProductsLimit: r.TopProductsLimit,
	}
	if r.From != nil {
		f.From = *r.From
	}
	if r.To != nil {
		f.To = r.To.Add(24*time.Hour - time.Nanosecond)
	}
	return f
}
