package invoice

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"uniformshop/internal/core/apperror"
	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/numerator"
	"uniformshop/internal/core/tx"
	"uniformshop/internal/core/types"
	"uniformshop/internal/domain"
	"uniformshop/pkg/logger"
)

var tracer = otel.Tracer("uniformshop/invoice")

const (
	entityName = "invoice"

	EventInvoiceCreated       = "InvoiceCreated"
	EventInvoiceStatusChanged = "InvoiceStatusChanged"
)

// LineRequest is one requested purchase line.
type LineRequest struct {
	ProductRef id.ID
	Quantity   int64
	// UnitPrice overrides the catalog price when set.
	UnitPrice *types.Money
	Discount  types.Money
}

// PlaceOrderRequest describes a new sale.
type PlaceOrderRequest struct {
	CustomerRef        *id.ID
	Lines              []LineRequest
	PaymentMethod      PaymentMethod
	DiscountPercentage *decimal.Decimal
	DiscountAmount     types.Money
	TaxAmount          types.Money
	// GrandTotal, when supplied, must agree with the computed total.
	GrandTotal *types.Money
	Notes      *string
}

// Validate checks request shape. It touches no store.
func (r *PlaceOrderRequest) Validate() error {
	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line item is required").WithDetail("field", "lineItems")
	}
	for i, l := range r.Lines {
		if id.IsNil(l.ProductRef) {
			return apperror.NewValidation("product reference is required").WithDetail("line", i+1)
		}
		if l.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").WithDetail("line", i+1)
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").WithDetail("line", i+1)
		}
		if l.Discount.IsNegative() {
			return apperror.NewValidation("discount cannot be negative").WithDetail("line", i+1)
		}
	}
	if !r.PaymentMethod.IsValid() {
		return apperror.NewValidation("payment method must be one of Cash, Card, UPI").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(r.PaymentMethod))
	}
	if p := r.DiscountPercentage; p != nil && (p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100))) {
		return apperror.NewValidation("discount percentage must be between 0 and 100").WithDetail("field", "discountPercentage")
	}
	if r.DiscountAmount.IsNegative() {
		return apperror.NewValidation("discount amount cannot be negative").WithDetail("field", "discountAmount")
	}
	if r.TaxAmount.IsNegative() {
		return apperror.NewValidation("tax amount cannot be negative").WithDetail("field", "taxAmount")
	}
	return nil
}

// Observer receives order outcomes (metrics hook).
type Observer interface {
	ObserveOrder(outcome string, duration time.Duration)
	ObserveStatusChange(from, to string)
}

// Service owns the write path that creates invoices and moves stock for sales.
type Service struct {
	repo      Repository
	stock     StockStore
	customers CustomerChecker
	numerator numerator.Generator
	txManager tx.Manager
	events    domain.EventPublisher
	audit     domain.AuditLogger
	observer  Observer
	now       func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Stock     StockStore
	Customers CustomerChecker
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    domain.EventPublisher
	Audit     domain.AuditLogger
	Observer  Observer
}

// NewService creates the invoice service.
func NewService(d Deps) *Service {
	if d.Audit == nil {
		d.Audit = domain.NopAudit{}
	}
	return &Service{
		repo:      d.Repo,
		stock:     d.Stock,
		customers: d.Customers,
		numerator: d.Numerator,
		txManager: d.TxManager,
		events:    d.Events,
		audit:     d.Audit,
		observer:  d.Observer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder validates every line against current stock, then atomically reserves stock,
// allocates the invoice number and persists a Pending invoice. Any failure after the first
// decrement rolls the whole unit back.
//
// Two identical calls are two orders: each decrements stock and gets its own invoice number.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (inv *Invoice, err error) {
	ctx, span := tracer.Start(ctx, "invoice.PlaceOrder")
	started := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			if appErr, ok := apperror.AsAppError(err); ok {
				outcome = strings.ToLower(appErr.Code)
			}
			span.SetStatus(codes.Error, outcome)
		}
		if s.observer != nil {
			s.observer.ObserveOrder(outcome, time.Since(started))
		}
		span.End()
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.CustomerRef != nil {
		ok, err := s.customers.Exists(ctx, *req.CustomerRef)
		if err != nil {
			return nil, normalize(err)
		}
		if !ok {
			return nil, apperror.NewNotFound("customer", req.CustomerRef.String())
		}
	}

	lines, requested, err := s.priceLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	totals := ComputeTotals(lines, req.DiscountPercentage, req.DiscountAmount, req.TaxAmount)
	if err := CheckTotals(totals, req.GrandTotal); err != nil {
		return nil, err
	}

	inv = &Invoice{
		ID:             id.New(),
		CustomerRef:    req.CustomerRef,
		Lines:          lines,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		GrandTotal:     totals.GrandTotal,
		PaymentMethod:  req.PaymentMethod,
		Status:         StatusPending,
		Notes:          req.Notes,
		CreatedBy:      appctx.GetUserID(ctx),
		Version:        1,
	}
	if req.DiscountPercentage != nil {
		pct := *req.DiscountPercentage
		inv.DiscountPercentage = &pct
	}

	// Lock rows in a stable order so concurrent orders over the same products cannot deadlock.
	productIDs := make([]id.ID, 0, len(requested))
	for pid := range requested {
		productIDs = append(productIDs, pid)
	}
	slices.SortFunc(productIDs, func(a, b id.ID) int { return strings.Compare(a.String(), b.String()) })

	// The counter store may hold its own connection, so the number is taken
	// before the transaction; a rolled-back order leaves a gap in the series.
	number, err := s.numerator.Next(ctx, numerator.InvoiceConfig)
	if err != nil {
		return nil, normalize(err)
	}
	inv.InvoiceID = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, pid := range productIDs {
			if _, err := s.stock.DecrementStock(ctx, pid, requested[pid]); err != nil {
				return err
			}
		}

		inv.CreatedAt = s.now()

		if err := s.repo.Create(ctx, inv); err != nil {
			return err
		}

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: entityName,
			AggregateID:   inv.ID,
			EventType:     EventInvoiceCreated,
			Payload: map[string]any{
				"invoiceId":  inv.InvoiceID,
				"grandTotal": inv.GrandTotal.StringFixed(2),
				"lines":      len(inv.Lines),
			},
		}); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   inv.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"invoiceId": inv.InvoiceID, "grandTotal": inv.GrandTotal.StringFixed(2)},
		})
	})
	if err != nil {
		return nil, normalize(err)
	}

	span.SetAttributes(attribute.String("invoice.id", inv.InvoiceID))
	logger.Info(ctx, "order placed",
		"invoice_id", inv.InvoiceID,
		"grand_total", inv.GrandTotal.StringFixed(2),
		"lines", len(inv.Lines),
	)
	return inv, nil
}

// priceLines checks every line against the catalog before anything is mutated.
// It returns the priced lines and the total quantity requested per product.
func (s *Service) priceLines(ctx context.Context, reqLines []LineRequest) ([]LineItem, map[id.ID]int64, error) {
	ids := make([]id.ID, 0, len(reqLines))
	requested := make(map[id.ID]int64, len(reqLines))
	for _, l := range reqLines {
		if _, seen := requested[l.ProductRef]; !seen {
			ids = append(ids, l.ProductRef)
		}
		if l.Quantity > math.MaxInt64-requested[l.ProductRef] {
			return nil, nil, apperror.NewValidation("quantity too large").WithDetail("productId", l.ProductRef.String())
		}
		requested[l.ProductRef] += l.Quantity
	}

	products, err := s.stock.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, normalize(err)
	}

	for _, pid := range ids {
		p, ok := products[pid]
		if !ok {
			return nil, nil, apperror.NewProductNotFound(pid.String())
		}
		if p.StockQuantity < requested[pid] {
			return nil, nil, apperror.NewInsufficientStock(pid.String(), p.StockQuantity, requested[pid])
		}
	}

	lines := make([]LineItem, 0, len(reqLines))
	for i, l := range reqLines {
		p := products[l.ProductRef]
		price := p.UnitPrice
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		price = types.RoundMoney(price)
		discount := types.RoundMoney(l.Discount)

		amount := LineAmount(l.Quantity, price, discount)
		if amount.IsNegative() {
			return nil, nil, apperror.NewValidation("line discount exceeds line amount").WithDetail("line", i+1)
		}

		lines = append(lines, LineItem{
			LineNo:      i + 1,
			ProductRef:  p.ID,
			ProductCode: p.ProductID,
			Name:        p.Name,
			Size:        p.Size,
			UnitPrice:   price,
			Quantity:    l.Quantity,
			Discount:    discount,
			Amount:      amount,
		})
	}
	return lines, requested, nil
}

// UpdateStatus moves an invoice through its state machine. Cancelling restores the
// stock of every line in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, invoiceID id.ID, to Status) (*Invoice, error) {
	ctx, span := tracer.Start(ctx, "invoice.UpdateStatus")
	defer span.End()

	var (
		inv  *Invoice
		from Status
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		from = inv.Status
		if err := inv.TransitionTo(to, s.now()); err != nil {
			return err
		}

		// Version check first: a concurrent cancel loses here before restoring stock twice.
		if err := s.repo.UpdateStatus(ctx, inv); err != nil {
			return err
		}

		if to == StatusCancelled {
			for _, l := range inv.Lines {
				if _, err := s.stock.IncrementStock(ctx, l.ProductRef, l.Quantity); err != nil {
					if apperror.IsNotFound(err) {
						logger.Warn(ctx, "cancelled line refers to a deleted product", "product_ref", l.ProductRef)
						continue
					}
					return err
				}
			}
		}

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: entityName,
			AggregateID:   inv.ID,
			EventType:     EventInvoiceStatusChanged,
			Payload:       map[string]any{"invoiceId": inv.InvoiceID, "from": from, "to": to},
		}); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   inv.ID,
			Action:     domain.AuditActionStatusChange,
			Changes:    map[string]any{"status": map[string]any{"old": from, "new": to}},
		})
	})
	if err != nil {
		return nil, normalize(err)
	}

	if s.observer != nil {
		s.observer.ObserveStatusChange(string(from), string(to))
	}
	logger.Info(ctx, "invoice status changed", "invoice_id", inv.InvoiceID, "from", from, "to", to)
	return inv, nil
}

// GetByID returns an invoice with lines.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, normalize(err)
	}
	return inv, nil
}

// GetByInvoiceID returns an invoice by its INV number.
func (s *Service) GetByInvoiceID(ctx context.Context, number string) (*Invoice, error) {
	inv, err := s.repo.GetByInvoiceID(ctx, number)
	if err != nil {
		return nil, normalize(err)
	}
	return inv, nil
}

// List returns invoice headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	if filter.Status != nil && !filter.Status.IsValid() {
		return domain.ListResult[*Invoice]{}, apperror.NewValidation("unknown invoice status").
			WithDetail("status", string(*filter.Status))
	}
	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*Invoice]{}, normalize(err)
	}
	return res, nil
}

func normalize(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewStorageUnavailable(fmt.Errorf("%s: %w", entityName, err))
}
