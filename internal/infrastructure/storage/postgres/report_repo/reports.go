// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniformshop/internal/domain/reports"
	"uniformshop/internal/infrastructure/storage/postgres"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// InvoiceSummary groups invoices created in [from, to) by status.
func (r *ReportRepo) InvoiceSummary(ctx context.Context, from, to time.Time) ([]reports.StatusSummary, error) {
	sql, args, err := r.builder.
		Select("status", "COUNT(*) AS count", "COALESCE(SUM(grand_total), 0) AS total").
		From("invoices").
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		GroupBy("status").
		OrderBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := make([]reports.StatusSummary, 0, 4)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("invoice summary: %w", err)
	}
	return out, nil
}

// TopProducts returns best sellers by quantity among invoices that were not cancelled.
func (r *ReportRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]reports.ProductSales, error) {
	sql, args, err := r.builder.
		Select(
			"l.product_ref",
			"MIN(l.name) AS name",
			"SUM(l.quantity) AS quantity",
			"SUM(l.amount) AS revenue",
		).
		From("invoice_lines l").
		Join("invoices i ON i.id = l.invoice_ref").
		Where(squirrel.NotEq{"i.status": "Cancelled"}).
		Where(squirrel.GtOrEq{"i.created_at": from}).
		Where(squirrel.Lt{"i.created_at": to}).
		GroupBy("l.product_ref").
		OrderBy("quantity DESC", "name ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := make([]reports.ProductSales, 0, limit)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return out, nil
}

// LowStock lists products at or below their threshold, emptiest first.
func (r *ReportRepo) LowStock(ctx context.Context, limit int) ([]reports.LowStockItem, error) {
	sql, args, err := r.builder.
		Select("id", "product_id", "name", "size", "stock_quantity", "low_stock_threshold").
		From("products").
		Where("stock_quantity <= low_stock_threshold").
		OrderBy("stock_quantity ASC", "product_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := make([]reports.LowStockItem, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return out, nil
}

// CustomerCount returns the number of customers.
func (r *ReportRepo) CustomerCount(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM customers")
}

// OpenTailoringCount returns tailoring orders not yet delivered or cancelled.
func (r *ReportRepo) OpenTailoringCount(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM tailoring_orders WHERE status NOT IN ('Delivered', 'Cancelled')")
}

func (r *ReportRepo) count(ctx context.Context, sql string) (int64, error) {
	var n int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
