package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/catalogs/customer"
)

var _ customer.Repository = (*CustomerRepo)(nil)

// CustomerRepo stores customers in memory.
type CustomerRepo struct {
	mu    sync.RWMutex
	items map[id.ID]*customer.Customer
}

// NewCustomerRepo creates an empty customer repository.
func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{items: make(map[id.ID]*customer.Customer)}
}

func cloneCustomer(c *customer.Customer) *customer.Customer {
	out := *c
	out.Measurements = maps.Clone(c.Measurements)
	return &out
}

func (r *CustomerRepo) phoneTaken(phone *string, except id.ID) bool {
	if phone == nil {
		return false
	}
	for _, c := range r.items {
		if c.ID != except && c.Phone != nil && *c.Phone == *phone {
			return true
		}
	}
	return false
}

// Create implements customer.Repository.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phoneTaken(c.Phone, c.ID) {
		return apperror.NewDuplicate("customer", "phone", *c.Phone)
	}
	r.items[c.ID] = cloneCustomer(c)

	cid := c.ID
	onRollback(ctx, func() {
		r.mu.Lock()
		delete(r.items, cid)
		r.mu.Unlock()
	})
	return nil
}

// GetByID implements customer.Repository.
func (r *CustomerRepo) GetByID(_ context.Context, cid id.ID) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[cid]
	if !ok {
		return nil, apperror.NewNotFound("customer", cid.String())
	}
	return cloneCustomer(c), nil
}

// GetByCustomerID implements customer.Repository.
func (r *CustomerRepo) GetByCustomerID(_ context.Context, code string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.CustomerID == code {
			return cloneCustomer(c), nil
		}
	}
	return nil, apperror.NewNotFound("customer", code)
}

// FindByPhone implements customer.Repository.
func (r *CustomerRepo) FindByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.Phone != nil && *c.Phone == phone {
			return cloneCustomer(c), nil
		}
	}
	return nil, apperror.NewNotFound("customer", phone)
}

// Update implements customer.Repository.
func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[c.ID]
	if !ok {
		return apperror.NewNotFound("customer", c.ID.String())
	}
	if cur.Version != c.Version {
		return apperror.NewConcurrentModification("customer", c.ID.String())
	}
	if r.phoneTaken(c.Phone, c.ID) {
		return apperror.NewDuplicate("customer", "phone", *c.Phone)
	}

	next := cloneCustomer(c)
	next.CustomerID = cur.CustomerID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	next.Version = cur.Version + 1
	r.items[c.ID] = next
	c.UpdatedAt, c.Version = next.UpdatedAt, next.Version

	onRollback(ctx, func() {
		r.mu.Lock()
		r.items[cur.ID] = cur
		r.mu.Unlock()
	})
	return nil
}

// Delete implements customer.Repository.
func (r *CustomerRepo) Delete(ctx context.Context, cid id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[cid]
	if !ok {
		return apperror.NewNotFound("customer", cid.String())
	}
	delete(r.items, cid)
	onRollback(ctx, func() {
		r.mu.Lock()
		r.items[cid] = cur
		r.mu.Unlock()
	})
	return nil
}

// List implements customer.Repository.
func (r *CustomerRepo) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	r.mu.RLock()
	search := strings.ToLower(f.Search)
	items := make([]*customer.Customer, 0, len(r.items))
	for _, c := range r.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.CustomerID), search) &&
			(c.Phone == nil || !strings.Contains(*c.Phone, search)) {
			continue
		}
		items = append(items, cloneCustomer(c))
	}
	r.mu.RUnlock()

	col, desc := f.SortField(map[string]string{"name": "name", "customerId": "customer_id", "createdAt": "created_at"}, "name")
	slices.SortFunc(items, func(a, b *customer.Customer) int {
		var c int
		switch col {
		case "customer_id":
			c = cmp.Compare(a.CustomerID, b.CustomerID)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = cmp.Compare(a.Name, b.Name)
		}
		if c == 0 {
			c = cmp.Compare(a.CustomerID, b.CustomerID)
		}
		if desc {
			return -c
		}
		return c
	})
	return domain.Page(items, f), nil
}

// Exists implements customer.Repository.
func (r *CustomerRepo) Exists(_ context.Context, cid id.ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[cid]
	return ok, nil
}

// Count returns the number of customers.
func (r *CustomerRepo) Count() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items))
}
