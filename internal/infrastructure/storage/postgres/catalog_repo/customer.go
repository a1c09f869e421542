package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"uniformshop/internal/domain"
	"uniformshop/internal/domain/catalogs/customer"
	"uniformshop/internal/infrastructure/storage/postgres"
)

var _ customer.Repository = (*CustomerRepo)(nil)

var customerSortColumns = map[string]string{
	"name":       "name",
	"customerId": "customer_id",
	"createdAt":  "created_at",
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm, "customers", "customer",
			[]string{"customer_id"},
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

// GetByCustomerID implements customer.Repository.
func (r *CustomerRepo) GetByCustomerID(ctx context.Context, code string) (*customer.Customer, error) {
	return r.GetBy(ctx, "customer_id", code)
}

// FindByPhone implements customer.Repository.
func (r *CustomerRepo) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	return r.GetBy(ctx, "phone", phone)
}

// Update implements customer.Repository.
func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	v, err := r.BaseCatalogRepo.Update(ctx, c)
	if err != nil {
		return err
	}
	c.Version = v
	return nil
}

// List implements customer.Repository.
func (r *CustomerRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	q := r.SelectBuilder()
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"customer_id": pattern},
			squirrel.Like{"phone": pattern},
		})
	}
	return r.BaseCatalogRepo.List(ctx, q, f, OrderBy(f, customerSortColumns, "name", "customer_id"))
}
