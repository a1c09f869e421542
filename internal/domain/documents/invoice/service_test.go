package invoice_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniformshop/internal/core/apperror"
	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/core/id"
	corenumerator "uniformshop/internal/core/numerator"
	"uniformshop/internal/core/tx"
	"uniformshop/internal/core/types"
	"uniformshop/internal/domain/catalogs/product"
	"uniformshop/internal/domain/documents/invoice"
	"uniformshop/internal/infrastructure/numerator"
	"uniformshop/internal/infrastructure/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   *invoice.Service
}

type fixtureOption func(*invoice.Deps)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	store := memory.NewStore(0)
	deps := invoice.Deps{
		Repo:      store.Invoices,
		Stock:     store.Products,
		Customers: store.Customers,
		Numerator: numerator.New(store.Sequences, numerator.DefaultOptions()),
		TxManager: store.TxManager,
		Events:    store.Outbox,
		Audit:     store.Audit,
	}
	for _, o := range opts {
		o(&deps)
	}
	return &fixture{store: store, svc: invoice.NewService(deps)}
}

func (f *fixture) addProduct(t *testing.T, name, price string, stock int64) *product.Product {
	t.Helper()
	p := product.New(name, "Uniform", "M", types.MustMoney(price))
	p.ProductID = "PRD-" + p.ID.String()
	p.StockQuantity = stock
	p.Version = 1
	require.NoError(t, f.store.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, pid id.ID) int64 {
	t.Helper()
	p, err := f.store.Products.GetByID(context.Background(), pid)
	require.NoError(t, err)
	return p.StockQuantity
}

func order(lines ...invoice.LineRequest) invoice.PlaceOrderRequest {
	return invoice.PlaceOrderRequest{Lines: lines, PaymentMethod: invoice.PaymentCash}
}

func line(pid id.ID, qty int64) invoice.LineRequest {
	return invoice.LineRequest{ProductRef: pid, Quantity: qty}
}

func money(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func TestPlaceOrder_StockIsCheckedAcrossOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)

	inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 3)))
	require.NoError(t, err)
	assert.Equal(t, "INV0001", inv.InvoiceID)
	assert.Equal(t, invoice.StatusPending, inv.Status)
	assert.EqualValues(t, 2, f.stock(t, p.ID))

	_, err = f.svc.PlaceOrder(ctx, order(line(p.ID, 3)))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 2, appErr.Details["available"])
	assert.EqualValues(t, 3, appErr.Details["requested"])

	assert.EqualValues(t, 2, f.stock(t, p.ID))
	cur, err := f.store.Sequences.Get(ctx, corenumerator.SeriesInvoice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cur, "a rejected order must not consume an invoice number")
}

func TestPlaceOrder_Totals(t *testing.T) {
	f := newFixture(t)
	shirt := f.addProduct(t, "Shirt", "100", 10)
	tie := f.addProduct(t, "Tie", "40", 10)

	req := order(line(shirt.ID, 2), line(tie.ID, 1))
	req.TaxAmount = types.MustMoney("18")
	req.GrandTotal = money("258")

	inv, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, types.MustMoney("240").Equal(inv.Subtotal))
	assert.True(t, types.MustMoney("18").Equal(inv.TaxAmount))
	assert.True(t, types.MustMoney("258").Equal(inv.GrandTotal))
	assert.True(t, inv.TotalsConsistent())
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "Shirt", inv.Lines[0].Name)
	assert.True(t, types.MustMoney("200").Equal(inv.Lines[0].Amount))
}

func TestPlaceOrder_PercentageDiscount(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Blazer", "333.33", 10)

	pct := decimal.NewFromInt(10)
	req := order(line(p.ID, 1))
	req.DiscountPercentage = &pct
	req.DiscountAmount = types.MustMoney("999") // ignored when a percentage is given

	inv, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "33.33", inv.DiscountAmount.StringFixed(2))
	assert.Equal(t, "300.00", inv.GrandTotal.StringFixed(2))
	require.NotNil(t, inv.DiscountPercentage)
	assert.True(t, pct.Equal(*inv.DiscountPercentage))
}

func TestPlaceOrder_RejectsMismatchedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 10)

	req := order(line(p.ID, 1))
	req.GrandTotal = money("99.98")
	_, err := f.svc.PlaceOrder(ctx, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTotals))
	assert.EqualValues(t, 10, f.stock(t, p.ID))

	// within one cent is accepted
	req.GrandTotal = money("99.99")
	_, err = f.svc.PlaceOrder(ctx, req)
	require.NoError(t, err)
}

func TestPlaceOrder_NegativeGrandTotal(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Socks", "10", 10)

	req := order(line(p.ID, 1))
	req.DiscountAmount = types.MustMoney("50")
	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTotals))
	assert.EqualValues(t, 10, f.stock(t, p.ID))
}

func TestPlaceOrder_UnknownProductMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)

	_, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 1), line(id.New(), 1)))
	assert.True(t, apperror.HasCode(err, apperror.CodeProductNotFound))
	assert.Equal(t, 404, apperror.GetHTTPStatus(err))

	assert.EqualValues(t, 5, f.stock(t, p.ID))
	assert.Empty(t, f.store.Outbox.Messages())
	res, err := f.svc.List(ctx, invoice.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Shirt", "100", 5)

	tests := []struct {
		name string
		req  invoice.PlaceOrderRequest
	}{
		{"no lines", order()},
		{"zero quantity", order(line(p.ID, 0))},
		{"nil product", order(line(id.Nil(), 1))},
		{"bad payment", invoice.PlaceOrderRequest{Lines: []invoice.LineRequest{line(p.ID, 1)}, PaymentMethod: "Cheque"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), tt.req)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
	assert.EqualValues(t, 5, f.stock(t, p.ID))
}

func TestPlaceOrder_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Shirt", "100", 5)

	req := order(line(p.ID, 1))
	ghost := id.New()
	req.CustomerRef = &ghost
	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.True(t, apperror.IsNotFound(err))
	assert.EqualValues(t, 5, f.stock(t, p.ID))
}

func TestPlaceOrder_AggregatesLinesOfSameProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)

	_, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 3), line(p.ID, 3)))
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.EqualValues(t, 5, f.stock(t, p.ID))

	inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 2), line(p.ID, 3)))
	require.NoError(t, err)
	assert.Len(t, inv.Lines, 2)
	assert.EqualValues(t, 0, f.stock(t, p.ID))
}

func TestPlaceOrder_ReplayCreatesSecondInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)
	req := order(line(p.ID, 1))

	first, err := f.svc.PlaceOrder(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.InvoiceID, second.InvoiceID)
	assert.Equal(t, "INV0002", second.InvoiceID)
	assert.EqualValues(t, 3, f.stock(t, p.ID))
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 1)

	var wins, shortages atomic.Int64
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 1)))
			switch {
			case err == nil:
				wins.Add(1)
			case apperror.HasCode(err, apperror.CodeInsufficientStock):
				shortages.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, 19, shortages.Load())
	assert.EqualValues(t, 0, f.stock(t, p.ID))
}

func TestPlaceOrder_ConcurrentOrdersGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 100)

	const n = 50
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 1)))
			if err != nil {
				t.Errorf("place order: %v", err)
				return
			}
			numbers <- inv.InvoiceID
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	assert.EqualValues(t, 100-n, f.stock(t, p.ID))
}

// failingRepo rejects every Create after the stock was already decremented.
type failingRepo struct {
	invoice.Repository
}

func (failingRepo) Create(context.Context, *invoice.Invoice) error {
	return errors.New("disk full")
}

func TestPlaceOrder_RollsBackWhenPersistFails(t *testing.T) {
	f := newFixture(t, func(d *invoice.Deps) {
		d.Repo = failingRepo{Repository: d.Repo}
	})
	ctx := context.Background()
	a := f.addProduct(t, "Shirt", "100", 5)
	b := f.addProduct(t, "Tie", "40", 5)

	_, err := f.svc.PlaceOrder(ctx, order(line(a.ID, 2), line(b.ID, 5)))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeStorageUnavailable))

	assert.EqualValues(t, 5, f.stock(t, a.ID))
	assert.EqualValues(t, 5, f.stock(t, b.ID))
	assert.Empty(t, f.store.Outbox.Messages())
	assert.Empty(t, f.store.Audit.Entries())
}

// brokenCounter always fails, as an unreachable counter table would.
type brokenCounter struct{}

func (brokenCounter) IncrementAndGet(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}
func (brokenCounter) Set(context.Context, string, int64) error { return nil }
func (brokenCounter) Get(context.Context, string) (int64, error) { return 0, nil }

func TestPlaceOrder_AllocationFailureRollsBack(t *testing.T) {
	f := newFixture(t, func(d *invoice.Deps) {
		d.Numerator = numerator.New(brokenCounter{}, numerator.Options{MaxAttempts: 2, BaseDelay: 1, MaxDelay: 1})
	})
	p := f.addProduct(t, "Shirt", "100", 5)

	_, err := f.svc.PlaceOrder(context.Background(), order(line(p.ID, 2)))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeAllocationFailed, appErr.Code)
	assert.True(t, appErr.Retryable())
	assert.EqualValues(t, 5, f.stock(t, p.ID))
}

// txTracker flags the span of every transaction so the counter can tell
// whether it was called inside one.
type txTracker struct {
	inner  tx.Manager
	active atomic.Bool
}

func (m *txTracker) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return m.inner.RunInTransaction(ctx, func(ctx context.Context) error {
		m.active.Store(true)
		defer m.active.Store(false)
		return fn(ctx)
	})
}

type trackedCounter struct {
	corenumerator.CounterStore
	tx       *txTracker
	calls    atomic.Int64
	insideTx atomic.Int64
}

func (c *trackedCounter) IncrementAndGet(ctx context.Context, series string) (int64, error) {
	c.calls.Add(1)
	if c.tx.active.Load() {
		c.insideTx.Add(1)
	}
	return c.CounterStore.IncrementAndGet(ctx, series)
}

func TestPlaceOrder_NumberAllocatedOutsideTransaction(t *testing.T) {
	var counter *trackedCounter
	f := newFixture(t, func(d *invoice.Deps) {
		tracker := &txTracker{inner: d.TxManager}
		counter = &trackedCounter{CounterStore: memory.NewSequenceStore(), tx: tracker}
		d.TxManager = tracker
		d.Numerator = numerator.New(counter, numerator.DefaultOptions())
	})
	p := f.addProduct(t, "Shirt", "100", 5)

	inv, err := f.svc.PlaceOrder(context.Background(), order(line(p.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, "INV0001", inv.InvoiceID)
	assert.EqualValues(t, 1, counter.calls.Load())
	assert.Zero(t, counter.insideTx.Load())
}

func TestPlaceOrder_RejectsOverflowingQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Shirt", "100", 5)

	_, err := f.svc.PlaceOrder(context.Background(), order(line(p.ID, math.MaxInt64), line(p.ID, math.MaxInt64)))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, p.ID.String(), appErr.Details["productId"])
	assert.EqualValues(t, 5, f.stock(t, p.ID))
	assert.Empty(t, f.store.Outbox.Messages())

	next, err := f.svc.PlaceOrder(context.Background(), order(line(p.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, "INV0001", next.InvoiceID)
}

func TestPlaceOrder_EventsAndAudit(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Shirt", "100", 5)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1", Role: "staff"})

	inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, "u-1", inv.CreatedBy)

	msgs := f.store.Outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, invoice.EventInvoiceCreated, msgs[0].EventType)
	assert.Equal(t, inv.ID, msgs[0].AggregateID)

	entries := f.store.Audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "u-1", entries[0].UserID)
}

func TestPlaceOrder_UnitPriceOverride(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Shirt", "100", 5)

	l := line(p.ID, 2)
	l.UnitPrice = money("90")
	l.Discount = types.MustMoney("5")
	inv, err := f.svc.PlaceOrder(context.Background(), order(l))
	require.NoError(t, err)
	assert.Equal(t, "175.00", inv.GrandTotal.StringFixed(2))
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)

	inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 2)))
	require.NoError(t, err)

	paid, err := f.svc.UpdateStatus(ctx, inv.ID, invoice.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	delivered, err := f.svc.UpdateStatus(ctx, inv.ID, invoice.StatusDelivered)
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = f.svc.UpdateStatus(ctx, inv.ID, invoice.StatusCancelled)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
	assert.EqualValues(t, 3, f.stock(t, p.ID))
}

func TestUpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addProduct(t, "Shirt", "100", 5)
	b := f.addProduct(t, "Tie", "40", 5)

	inv, err := f.svc.PlaceOrder(ctx, order(line(a.ID, 2), line(b.ID, 1), line(a.ID, 1)))
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.stock(t, a.ID))

	cancelled, err := f.svc.UpdateStatus(ctx, inv.ID, invoice.StatusCancelled)
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.EqualValues(t, 5, f.stock(t, a.ID))
	assert.EqualValues(t, 5, f.stock(t, b.ID))

	_, err = f.svc.UpdateStatus(ctx, inv.ID, invoice.StatusCancelled)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStatusTransition))
	assert.EqualValues(t, 5, f.stock(t, a.ID))

	var changed int
	for _, m := range f.store.Outbox.Messages() {
		if m.EventType == invoice.EventInvoiceStatusChanged {
			changed++
		}
	}
	assert.Equal(t, 1, changed)
}

func TestUpdateStatus_DeliveryStampsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)

	inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 1)))
	require.NoError(t, err)

	got, err := f.svc.UpdateStatus(ctx, inv.ID, invoice.StatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, got.PaidAt, got.DeliveredAt)
}

func TestUpdateStatus_UnknownInvoiceAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)

	_, err := f.svc.UpdateStatus(ctx, id.New(), invoice.StatusPaid)
	assert.True(t, apperror.IsNotFound(err))

	inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 1)))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, inv.ID, "Refunded")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestGetByInvoiceID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Shirt", "100", 5)

	inv, err := f.svc.PlaceOrder(ctx, order(line(p.ID, 1)))
	require.NoError(t, err)

	got, err := f.svc.GetByInvoiceID(ctx, inv.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Len(t, got.Lines, 1)
}
