package memory

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

func domainEvent() domain.Event {
	return domain.Event{AggregateType: "test", AggregateID: id.New(), EventType: "Tested", Payload: map[string]any{"n": 1}}
}

func TestProductRepo_DecrementNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo()
	p := seedProduct(t, repo, 10)

	var ok, short atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DecrementStock(ctx, p.ID, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case apperror.HasCode(err, apperror.CodeInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, ok.Load())
	assert.EqualValues(t, 40, short.Load())
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.StockQuantity)
}

func TestProductRepo_DecrementErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo()
	p := seedProduct(t, repo, 2)

	_, err := repo.DecrementStock(ctx, id.New(), 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeProductNotFound))

	_, err = repo.DecrementStock(ctx, p.ID, 3)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 2, appErr.Details["available"])
	assert.EqualValues(t, 3, appErr.Details["requested"])
}

func TestProductRepo_StockChangeMustBePositive(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo()
	p := seedProduct(t, repo, 4)

	for _, qty := range []int64{0, -3, math.MinInt64} {
		_, err := repo.DecrementStock(ctx, p.ID, qty)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "decrement %d", qty)
		_, err = repo.IncrementStock(ctx, p.ID, qty)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "increment %d", qty)
	}

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, got.StockQuantity)
	assert.Equal(t, 1, got.Version)
}

func TestProductRepo_IncrementRejectsOverflow(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo()
	p := seedProduct(t, repo, math.MaxInt64-2)

	_, err := repo.IncrementStock(ctx, p.ID, 3)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, p.ID.String(), appErr.Details["productId"])

	qty, err := repo.IncrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), qty)
}

func TestProductRepo_UpdateKeepsStockAndChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo()
	p := seedProduct(t, repo, 7)

	edit := *p
	edit.Name = "Renamed"
	edit.StockQuantity = 999
	require.NoError(t, repo.Update(ctx, &edit))
	assert.EqualValues(t, 7, edit.StockQuantity)
	assert.Equal(t, 2, edit.Version)

	stale := *p
	err := repo.Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}
