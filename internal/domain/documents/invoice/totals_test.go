package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/types"
)

func TestComputeTotals(t *testing.T) {
	lines := []LineItem{
		{Quantity: 2, UnitPrice: types.MustMoney("100")},
		{Quantity: 1, UnitPrice: types.MustMoney("40")},
	}
	got := ComputeTotals(lines, nil, types.Zero(), types.MustMoney("18"))
	assert.Equal(t, "240.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "258.00", got.GrandTotal.StringFixed(2))

	pct := decimal.NewFromFloat(12.5)
	got = ComputeTotals(lines, &pct, types.MustMoney("1"), types.Zero())
	assert.Equal(t, "30.00", got.DiscountAmount.StringFixed(2))
	assert.Equal(t, "210.00", got.GrandTotal.StringFixed(2))
}

func TestLineAmount_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, "10.13", LineAmount(1, types.MustMoney("10.125"), types.Zero()).StringFixed(2))
	assert.Equal(t, "25.00", LineAmount(3, types.MustMoney("10"), types.MustMoney("5")).StringFixed(2))
}

func TestCheckTotals(t *testing.T) {
	ok := Totals{GrandTotal: types.MustMoney("100")}
	assert.NoError(t, CheckTotals(ok, nil))
	assert.NoError(t, CheckTotals(ok, ptr(types.MustMoney("100.01"))))

	err := CheckTotals(ok, ptr(types.MustMoney("100.02")))
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTotals))

	err = CheckTotals(Totals{GrandTotal: types.MustMoney("-0.01")}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTotals))
}

func TestStatusMachine(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusDelivered, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
		{StatusPending, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
	assert.True(t, StatusDelivered.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
}

func TestTransitionTo_Timestamps(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	inv := &Invoice{Status: StatusPaid}
	paidAt := now.Add(-time.Hour)
	inv.PaidAt = &paidAt

	assert.NoError(t, inv.TransitionTo(StatusDelivered, now))
	assert.Equal(t, paidAt, *inv.PaidAt)
	assert.Equal(t, now, *inv.DeliveredAt)

	err := inv.TransitionTo(StatusCancelled, now)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
}

func ptr[T any](v T) *T { return &v }
