package tailoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/numerator"
	"uniformshop/internal/core/types"
	"uniformshop/internal/domain/catalogs/customer"
	"uniformshop/internal/domain/documents/tailoring"
	"uniformshop/internal/infrastructure/storage/memory"
)

func setup(t *testing.T) (*tailoring.Service, *memory.Store, *customer.Customer) {
	t.Helper()
	store := memory.NewStore(0)
	c := customer.New("Kiran")
	c.CustomerID = "CUS0001"
	c.Version = 1
	require.NoError(t, store.Customers.Create(context.Background(), c))
	svc := tailoring.NewService(store.Tailoring, store.Customers, &numerator.MockGenerator{}, store.TxManager, store.Outbox, store.Audit)
	return svc, store, c
}

func newOrder(customerRef id.ID) *tailoring.Order {
	return &tailoring.Order{
		CustomerRef:  customerRef,
		Garment:      "Blazer",
		Measurements: map[string]string{"chest": "38", "sleeve": "24"},
		Price:        types.MustMoney("1500"),
		AdvancePaid:  types.MustMoney("500"),
	}
}

func TestCreate(t *testing.T) {
	svc, _, c := setup(t)
	ctx := context.Background()

	o := newOrder(c.ID)
	require.NoError(t, svc.Create(ctx, o))
	assert.Equal(t, "TLR0001", o.OrderNo)
	assert.Equal(t, tailoring.StatusReceived, o.Status)
	assert.Equal(t, "1000.00", o.Balance().StringFixed(2))

	_, err := svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
}

func TestCreate_Rejections(t *testing.T) {
	svc, _, c := setup(t)
	ctx := context.Background()

	o := newOrder(id.New())
	assert.True(t, apperror.IsNotFound(svc.Create(ctx, o)))

	o = newOrder(c.ID)
	o.AdvancePaid = types.MustMoney("2000")
	assert.True(t, apperror.HasCode(svc.Create(ctx, o), apperror.CodeValidation))
}

func TestUpdateStatus_Workflow(t *testing.T) {
	svc, store, c := setup(t)
	ctx := context.Background()

	o := newOrder(c.ID)
	require.NoError(t, svc.Create(ctx, o))

	_, err := svc.UpdateStatus(ctx, o.ID, tailoring.StatusReady, types.Zero())
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))

	for _, st := range []tailoring.Status{tailoring.StatusInProgress, tailoring.StatusReady} {
		_, err := svc.UpdateStatus(ctx, o.ID, st, types.Zero())
		require.NoError(t, err)
	}
	done, err := svc.UpdateStatus(ctx, o.ID, tailoring.StatusDelivered, types.MustMoney("1000"))
	require.NoError(t, err)
	assert.True(t, done.Balance().IsZero())
	assert.NotNil(t, done.DeliveredAt)
	assert.Len(t, store.Outbox.Messages(), 3)
}

func TestUpdateStatus_OverpaymentRollsBack(t *testing.T) {
	svc, store, c := setup(t)
	ctx := context.Background()

	o := newOrder(c.ID)
	require.NoError(t, svc.Create(ctx, o))

	_, err := svc.UpdateStatus(ctx, o.ID, tailoring.StatusInProgress, types.MustMoney("5000"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	got, err := svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, tailoring.StatusReceived, got.Status)
	assert.Empty(t, store.Outbox.Messages())
}
