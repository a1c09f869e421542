package customer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/numerator"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/catalogs/customer"
	"uniformshop/internal/infrastructure/storage/memory"
)

func newService() *customer.Service {
	store := memory.NewStore(0)
	return customer.NewService(store.Customers, store.TxManager, &numerator.MockGenerator{}, store.Audit)
}

func strPtr(s string) *string { return &s }

func TestCreate_AssignsCustomerID(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	c := customer.New("Asha Rao")
	c.Phone = strPtr(" +91 98450 12345 ")
	c.Measurements = map[string]string{"chest": "36"}
	require.NoError(t, svc.Create(ctx, c))

	assert.Equal(t, "CUS0001", c.CustomerID)
	assert.Equal(t, "+91 98450 12345", *c.Phone)

	ok, err := svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreate_RejectsDuplicatePhone(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &customer.Customer{Name: "A", Phone: strPtr("9845012345")}))
	err := svc.Create(ctx, &customer.Customer{Name: "B", Phone: strPtr("9845012345")})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestCreate_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	assert.True(t, apperror.HasCode(svc.Create(ctx, &customer.Customer{Name: ""}), apperror.CodeValidation))
	assert.True(t, apperror.HasCode(
		svc.Create(ctx, &customer.Customer{Name: "X", Email: strPtr("not-an-email")}),
		apperror.CodeValidation,
	))
}

func TestUpdate_OptimisticLock(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	c := customer.New("Ravi")
	require.NoError(t, svc.Create(ctx, c))

	stale := *c
	c.Name = "Ravi K"
	require.NoError(t, svc.Update(ctx, c))
	assert.Equal(t, 2, c.Version)

	stale.Name = "Ravi Kumar"
	err := svc.Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestList_Search(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, customer.New("Meera")))
	require.NoError(t, svc.Create(ctx, customer.New("Arjun")))

	res, err := svc.List(ctx, domain.ListFilter{Search: "mee"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Meera", res.Items[0].Name)
}
