package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/types"
)

type stubRepo struct {
	summary []StatusSummary
	err     error
	from    time.Time
	to      time.Time
}

func (s *stubRepo) InvoiceSummary(_ context.Context, from, to time.Time) ([]StatusSummary, error) {
	s.from, s.to = from, to
	return s.summary, s.err
}
func (s *stubRepo) TopProducts(context.Context, time.Time, time.Time, int) ([]ProductSales, error) {
	return nil, nil
}
func (s *stubRepo) LowStock(context.Context, int) ([]LowStockItem, error) { return nil, nil }
func (s *stubRepo) CustomerCount(context.Context) (int64, error)           { return 7, nil }
func (s *stubRepo) OpenTailoringCount(context.Context) (int64, error)      { return 2, nil }

func TestDashboard_RevenueExcludesCancelled(t *testing.T) {
	repo := &stubRepo{summary: []StatusSummary{
		{Status: "Paid", Count: 2, Total: types.MustMoney("300")},
		{Status: "Pending", Count: 1, Total: types.MustMoney("100")},
		{Status: "Cancelled", Count: 4, Total: types.MustMoney("1000")},
	}}
	d, err := NewService(repo).Dashboard(context.Background(), DashboardFilter{})
	require.NoError(t, err)

	assert.EqualValues(t, 7, d.InvoiceCount)
	assert.Equal(t, "400.00", d.Revenue.StringFixed(2))
	assert.Equal(t, "133.33", d.AverageOrderValue.StringFixed(2))
	assert.EqualValues(t, 7, d.CustomerCount)
	assert.EqualValues(t, 2, d.OpenTailoringCount)
	assert.Equal(t, 30*24*time.Hour, repo.to.Sub(repo.from))
}

func TestDashboard_Errors(t *testing.T) {
	now := time.Now()
	_, err := NewService(&stubRepo{}).Dashboard(context.Background(), DashboardFilter{From: now, To: now})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = NewService(&stubRepo{err: errors.New("db down")}).Dashboard(context.Background(), DashboardFilter{})
	assert.True(t, apperror.HasCode(err, apperror.CodeStorageUnavailable))
}
