package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/catalogs/product"
	"uniformshop/internal/infrastructure/storage/postgres"
)

var _ product.Repository = (*ProductRepo)(nil)

var productSortColumns = map[string]string{
	"name":          "name",
	"productId":     "product_id",
	"stockQuantity": "stock_quantity",
	"unitPrice":     "unit_price",
	"createdAt":     "created_at",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm, "products", "product",
			[]string{"product_id", "stock_quantity"},
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetByProductID implements product.Repository.
func (r *ProductRepo) GetByProductID(ctx context.Context, code string) (*product.Product, error) {
	return r.GetBy(ctx, "product_id", code)
}

// GetMany implements product.Repository.
func (r *ProductRepo) GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sql, args, err := r.SelectBuilder().Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []*product.Product
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

// Update implements product.Repository. stock_quantity is never part of the SET list.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	p.UpdatedAt = time.Now().UTC()
	v, err := r.BaseCatalogRepo.Update(ctx, p)
	if err != nil {
		return err
	}
	p.Version = v
	return nil
}

// List implements product.Repository.
func (r *ProductRepo) List(ctx context.Context, f product.ListFilter) (domain.ListResult[*product.Product], error) {
	q := r.SelectBuilder()
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"product_id": pattern},
		})
	}
	if f.Category != "" {
		q = q.Where(squirrel.ILike{"category": f.Category})
	}
	if f.Size != "" {
		q = q.Where(squirrel.ILike{"size": f.Size})
	}
	if f.LowStockOnly {
		q = q.Where("stock_quantity <= low_stock_threshold")
	}
	return r.BaseCatalogRepo.List(ctx, q, f.ListFilter, OrderBy(f.ListFilter, productSortColumns, "name", "product_id"))
}

// DecrementStock implements product.Repository with a conditional update:
// the row changes only while enough stock remains, so stock cannot go negative.
func (r *ProductRepo) DecrementStock(ctx context.Context, pid id.ID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, product.NewInvalidStockChange(qty)
	}
	var remaining int64
	err := r.Querier(ctx).QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING stock_quantity
	`, pid, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	var available int64
	err = r.Querier(ctx).QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, pid).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NewProductNotFound(pid.String())
	}
	if err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	return 0, apperror.NewInsufficientStock(pid.String(), available, qty)
}

// IncrementStock implements product.Repository.
func (r *ProductRepo) IncrementStock(ctx context.Context, pid id.ID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, product.NewInvalidStockChange(qty)
	}
	var n int64
	err := r.Querier(ctx).QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING stock_quantity
	`, pid, qty).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NewNotFound("product", pid.String())
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgNumericOutOfRange {
			return 0, product.NewStockOverflow(pid.String(), qty)
		}
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return n, nil
}
