package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/documents/tailoring"
)

var _ tailoring.Repository = (*TailoringRepo)(nil)

// TailoringRepo stores tailoring orders in memory.
type TailoringRepo struct {
	mu    sync.RWMutex
	items map[id.ID]*tailoring.Order
}

// NewTailoringRepo creates an empty repository.
func NewTailoringRepo() *TailoringRepo {
	return &TailoringRepo{items: make(map[id.ID]*tailoring.Order)}
}

func cloneOrder(o *tailoring.Order) *tailoring.Order {
	c := *o
	c.Measurements = maps.Clone(o.Measurements)
	return &c
}

// Create implements tailoring.Repository.
func (r *TailoringRepo) Create(ctx context.Context, o *tailoring.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[o.ID] = cloneOrder(o)
	oid := o.ID
	onRollback(ctx, func() {
		r.mu.Lock()
		delete(r.items, oid)
		r.mu.Unlock()
	})
	return nil
}

// GetByID implements tailoring.Repository.
func (r *TailoringRepo) GetByID(_ context.Context, oid id.ID) (*tailoring.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.items[oid]
	if !ok {
		return nil, apperror.NewNotFound("tailoring order", oid.String())
	}
	return cloneOrder(o), nil
}

// Update implements tailoring.Repository.
func (r *TailoringRepo) Update(ctx context.Context, o *tailoring.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[o.ID]
	if !ok {
		return apperror.NewNotFound("tailoring order", o.ID.String())
	}
	if cur.Version != o.Version {
		return apperror.NewConcurrentModification("tailoring order", o.ID.String())
	}
	next := cloneOrder(o)
	next.Version = cur.Version + 1
	next.UpdatedAt = time.Now().UTC()
	r.items[o.ID] = next
	o.Version, o.UpdatedAt = next.Version, next.UpdatedAt

	onRollback(ctx, func() {
		r.mu.Lock()
		r.items[cur.ID] = cur
		r.mu.Unlock()
	})
	return nil
}

// List implements tailoring.Repository.
func (r *TailoringRepo) List(_ context.Context, f tailoring.ListFilter) (domain.ListResult[*tailoring.Order], error) {
	r.mu.RLock()
	search := strings.ToLower(f.Search)
	items := make([]*tailoring.Order, 0, len(r.items))
	for _, o := range r.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(o.OrderNo), search) &&
			!strings.Contains(strings.ToLower(o.Garment), search) {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.CustomerRef != nil && o.CustomerRef != *f.CustomerRef {
			continue
		}
		items = append(items, cloneOrder(o))
	}
	r.mu.RUnlock()

	slices.SortFunc(items, func(a, b *tailoring.Order) int {
		return -a.CreatedAt.Compare(b.CreatedAt)
	})
	return domain.Page(items, f.ListFilter), nil
}

// openCount returns orders that are neither delivered nor cancelled.
func (r *TailoringRepo) openCount() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, o := range r.items {
		if o.Status != tailoring.StatusDelivered && o.Status != tailoring.StatusCancelled {
			n++
		}
	}
	return n
}
