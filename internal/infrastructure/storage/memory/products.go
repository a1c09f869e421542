package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/catalogs/product"
)

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo stores products in memory.
type ProductRepo struct {
	mu    sync.RWMutex
	items map[id.ID]*product.Product
}

// NewProductRepo creates an empty product repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{items: make(map[id.ID]*product.Product)}
}

func cloneProduct(p *product.Product) *product.Product {
	c := *p
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	return &c
}

// Create implements product.Repository.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; ok {
		return apperror.NewDuplicate("product", "id", p.ID.String())
	}
	for _, existing := range r.items {
		if existing.ProductID == p.ProductID {
			return apperror.NewDuplicate("product", "productId", p.ProductID)
		}
	}
	r.items[p.ID] = cloneProduct(p)

	pid := p.ID
	onRollback(ctx, func() {
		r.mu.Lock()
		delete(r.items, pid)
		r.mu.Unlock()
	})
	return nil
}

// GetByID implements product.Repository.
func (r *ProductRepo) GetByID(_ context.Context, pid id.ID) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[pid]
	if !ok {
		return nil, apperror.NewNotFound("product", pid.String())
	}
	return cloneProduct(p), nil
}

// GetByProductID implements product.Repository.
func (r *ProductRepo) GetByProductID(_ context.Context, code string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.items {
		if p.ProductID == code {
			return cloneProduct(p), nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

// GetMany implements product.Repository.
func (r *ProductRepo) GetMany(_ context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[id.ID]*product.Product, len(ids))
	for _, pid := range ids {
		if p, ok := r.items[pid]; ok {
			out[pid] = cloneProduct(p)
		}
	}
	return out, nil
}

// Update implements product.Repository.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[p.ID]
	if !ok {
		return apperror.NewNotFound("product", p.ID.String())
	}
	if cur.Version != p.Version {
		return apperror.NewConcurrentModification("product", p.ID.String())
	}

	prev := cloneProduct(cur)
	next := cloneProduct(p)
	next.ProductID = cur.ProductID
	next.StockQuantity = cur.StockQuantity
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	next.Version = cur.Version + 1
	r.items[p.ID] = next

	p.StockQuantity = next.StockQuantity
	p.UpdatedAt = next.UpdatedAt
	p.Version = next.Version

	onRollback(ctx, func() {
		r.mu.Lock()
		r.items[prev.ID] = prev
		r.mu.Unlock()
	})
	return nil
}

// Delete implements product.Repository.
func (r *ProductRepo) Delete(ctx context.Context, pid id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[pid]
	if !ok {
		return apperror.NewNotFound("product", pid.String())
	}
	delete(r.items, pid)
	onRollback(ctx, func() {
		r.mu.Lock()
		r.items[pid] = cur
		r.mu.Unlock()
	})
	return nil
}

// List implements product.Repository.
func (r *ProductRepo) List(_ context.Context, f product.ListFilter) (domain.ListResult[*product.Product], error) {
	r.mu.RLock()
	items := make([]*product.Product, 0, len(r.items))
	search := strings.ToLower(f.Search)
	for _, p := range r.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.ProductID), search) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.Size != "" && !strings.EqualFold(p.Size, f.Size) {
			continue
		}
		if f.LowStockOnly && !p.IsLowStock() {
			continue
		}
		items = append(items, cloneProduct(p))
	}
	r.mu.RUnlock()

	col, desc := f.SortField(map[string]string{
		"name": "name", "productId": "product_id", "stockQuantity": "stock_quantity",
		"unitPrice": "unit_price", "createdAt": "created_at",
	}, "name")
	slices.SortFunc(items, func(a, b *product.Product) int {
		var c int
		switch col {
		case "product_id":
			c = cmp.Compare(a.ProductID, b.ProductID)
		case "stock_quantity":
			c = cmp.Compare(a.StockQuantity, b.StockQuantity)
		case "unit_price":
			c = a.UnitPrice.Cmp(b.UnitPrice)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = cmp.Compare(a.Name, b.Name)
		}
		if c == 0 {
			c = cmp.Compare(a.ProductID, b.ProductID)
		}
		if desc {
			return -c
		}
		return c
	})
	return domain.Page(items, f.ListFilter), nil
}

// DecrementStock implements product.Repository.
func (r *ProductRepo) DecrementStock(ctx context.Context, pid id.ID, qty int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if qty <= 0 {
		return 0, product.NewInvalidStockChange(qty)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[pid]
	if !ok {
		return 0, apperror.NewProductNotFound(pid.String())
	}
	if p.StockQuantity < qty {
		return 0, apperror.NewInsufficientStock(pid.String(), p.StockQuantity, qty)
	}
	p.StockQuantity -= qty
	p.Version++

	onRollback(ctx, func() { r.adjust(pid, qty) })
	return p.StockQuantity, nil
}

// IncrementStock implements product.Repository.
func (r *ProductRepo) IncrementStock(ctx context.Context, pid id.ID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, product.NewInvalidStockChange(qty)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[pid]
	if !ok {
		return 0, apperror.NewNotFound("product", pid.String())
	}
	if qty > math.MaxInt64-p.StockQuantity {
		return 0, product.NewStockOverflow(pid.String(), qty)
	}
	p.StockQuantity += qty
	p.Version++

	onRollback(ctx, func() { r.adjust(pid, -qty) })
	return p.StockQuantity, nil
}

// adjust applies a compensation delta, ignoring products deleted meanwhile.
func (r *ProductRepo) adjust(pid id.ID, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[pid]; ok {
		p.StockQuantity += delta
		p.Version++
	}
}

// snapshot returns copies of all products for reports.
func (r *ProductRepo) snapshot() []*product.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*product.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, cloneProduct(p))
	}
	return out
}
