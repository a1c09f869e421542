package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
	"uniformshop/internal/domain/documents/invoice"
	"uniformshop/internal/domain/reports"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo computes dashboard aggregates by scanning the other repositories.
type ReportRepo struct {
	products  *ProductRepo
	customers *CustomerRepo
	invoices  *InvoiceRepo
	tailoring *TailoringRepo
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// InvoiceSummary implements reports.Repository.
func (r *ReportRepo) InvoiceSummary(_ context.Context, from, to time.Time) ([]reports.StatusSummary, error) {
	byStatus := make(map[invoice.Status]*reports.StatusSummary)
	for _, inv := range r.invoices.snapshot() {
		if !inWindow(inv.CreatedAt, from, to) {
			continue
		}
		row, ok := byStatus[inv.Status]
		if !ok {
			row = &reports.StatusSummary{Status: string(inv.Status), Total: types.Zero()}
			byStatus[inv.Status] = row
		}
		row.Count++
		row.Total = row.Total.Add(inv.GrandTotal)
	}

	out := make([]reports.StatusSummary, 0, len(byStatus))
	for _, row := range byStatus {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b reports.StatusSummary) int { return cmp.Compare(a.Status, b.Status) })
	return out, nil
}

// TopProducts implements reports.Repository.
func (r *ReportRepo) TopProducts(_ context.Context, from, to time.Time, limit int) ([]reports.ProductSales, error) {
	agg := make(map[id.ID]*reports.ProductSales)
	for _, inv := range r.invoices.snapshot() {
		if inv.Status == invoice.StatusCancelled || !inWindow(inv.CreatedAt, from, to) {
			continue
		}
		for _, l := range inv.Lines {
			row, ok := agg[l.ProductRef]
			if !ok {
				row = &reports.ProductSales{ProductRef: l.ProductRef, Name: l.Name, Revenue: decimal.Zero}
				agg[l.ProductRef] = row
			}
			row.Quantity += l.Quantity
			row.Revenue = row.Revenue.Add(l.Amount)
		}
	}

	out := make([]reports.ProductSales, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b reports.ProductSales) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LowStock implements reports.Repository.
func (r *ReportRepo) LowStock(_ context.Context, limit int) ([]reports.LowStockItem, error) {
	out := make([]reports.LowStockItem, 0)
	for _, p := range r.products.snapshot() {
		if !p.IsLowStock() {
			continue
		}
		out = append(out, reports.LowStockItem{
			ID:                p.ID,
			ProductID:         p.ProductID,
			Name:              p.Name,
			Size:              p.Size,
			StockQuantity:     p.StockQuantity,
			LowStockThreshold: p.LowStockThreshold,
		})
	}
	slices.SortFunc(out, func(a, b reports.LowStockItem) int {
		if c := cmp.Compare(a.StockQuantity, b.StockQuantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CustomerCount implements reports.Repository.
func (r *ReportRepo) CustomerCount(context.Context) (int64, error) {
	return r.customers.Count(), nil
}

// OpenTailoringCount implements reports.Repository.
func (r *ReportRepo) OpenTailoringCount(context.Context) (int64, error) {
	return r.tailoring.openCount(), nil
}
