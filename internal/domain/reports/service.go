package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/types"
)

const cancelledStatus = "Cancelled"

// Service builds management reports.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Dashboard assembles the overview for [From, To). Zero bounds default to the last 30 days.
func (s *Service) Dashboard(ctx context.Context, filter DashboardFilter) (*Dashboard, error) {
	if filter.To.IsZero() {
		filter.To = s.now()
	}
	if filter.From.IsZero() {
		filter.From = filter.To.AddDate(0, 0, -30)
	}
	if !filter.From.Before(filter.To) {
		return nil, apperror.NewValidation("from must be before to").WithDetail("field", "from")
	}
	if filter.LowStockLimit <= 0 {
		filter.LowStockLimit = 20
	}
	if filter.TopProductsLimit <= 0 {
		filter.TopProductsLimit = 5
	}

	summary, err := s.repo.InvoiceSummary(ctx, filter.From, filter.To)
	if err != nil {
		return nil, wrap("invoice summary", err)
	}
	top, err := s.repo.TopProducts(ctx, filter.From, filter.To, filter.TopProductsLimit)
	if err != nil {
		return nil, wrap("top products", err)
	}
	low, err := s.repo.LowStock(ctx, filter.LowStockLimit)
	if err != nil {
		return nil, wrap("low stock", err)
	}
	customers, err := s.repo.CustomerCount(ctx)
	if err != nil {
		return nil, wrap("customer count", err)
	}
	tailoring, err := s.repo.OpenTailoringCount(ctx)
	if err != nil {
		return nil, wrap("tailoring count", err)
	}

	d := &Dashboard{
		From:               filter.From,
		To:                 filter.To,
		InvoicesByStatus:   summary,
		Revenue:            types.Zero(),
		AverageOrderValue:  types.Zero(),
		TopProducts:        top,
		LowStock:           low,
		CustomerCount:      customers,
		OpenTailoringCount: tailoring,
	}

	var billable int64
	for _, row := range summary {
		d.InvoiceCount += row.Count
		if row.Status == cancelledStatus {
			continue
		}
		billable += row.Count
		d.Revenue = d.Revenue.Add(row.Total)
	}
	d.Revenue = types.RoundMoney(d.Revenue)
	if billable > 0 {
		d.AverageOrderValue = types.RoundMoney(d.Revenue.Div(decimal.NewFromInt(billable)))
	}
	return d, nil
}

func wrap(what string, err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewStorageUnavailable(fmt.Errorf("%s: %w", what, err))
}
