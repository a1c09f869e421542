package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/types"
	"uniformshop/internal/domain/catalogs/product"
)

func seedProduct(t *testing.T, repo *ProductRepo, stock int64) *product.Product {
	t.Helper()
	p := product.New("School Shirt", "Shirts", "M", types.MustMoney("100"))
	p.ProductID = "PRD" + p.ID.String()[:8]
	p.StockQuantity = stock
	p.LowStockThreshold = 5
	p.Version = 1
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestTxManager_RollbackUndoesWritesInReverse(t *testing.T) {
	ctx := context.Background()
	tm := NewTxManager()
	repo := NewProductRepo()
	outbox := NewOutbox()
	p := seedProduct(t, repo, 5)

	boom := errors.New("boom")
	err := tm.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.DecrementStock(ctx, p.ID, 3)
		require.NoError(t, err)
		_, err = repo.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, got.StockQuantity)
	assert.Empty(t, outbox.Messages())
}

func TestTxManager_CommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	tm := NewTxManager()
	repo := NewProductRepo()
	p := seedProduct(t, repo, 5)

	err := tm.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.DecrementStock(ctx, p.ID, 3)
		return err
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.StockQuantity)
}

func TestTxManager_PanicRollsBackAndRepanics(t *testing.T) {
	ctx := context.Background()
	tm := NewTxManager()
	repo := NewProductRepo()
	p := seedProduct(t, repo, 4)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = tm.RunInTransaction(ctx, func(ctx context.Context) error {
			_, _ = repo.DecrementStock(ctx, p.ID, 4)
			panic("kaboom")
		})
	})

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, got.StockQuantity)
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	tm := NewTxManager()
	repo := NewProductRepo()
	p := seedProduct(t, repo, 10)

	boom := errors.New("outer failed")
	err := tm.RunInTransaction(ctx, func(ctx context.Context) error {
		err := tm.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.DecrementStock(ctx, p.ID, 6)
			return err
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.StockQuantity)
}

func TestOutbox_PublishRequiresTransaction(t *testing.T) {
	o := NewOutbox()
	err := o.Publish(context.Background(), domainEvent())
	require.Error(t, err)

	tm := NewTxManager()
	boom := errors.New("boom")
	err = tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		require.NoError(t, o.Publish(ctx, domainEvent()))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, o.Messages())

	err = tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return o.Publish(ctx, domainEvent())
	})
	require.NoError(t, err)
	assert.Len(t, o.Drain(), 1)
	assert.Empty(t, o.Messages())
}
