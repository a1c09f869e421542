package tailoring

import (
	"context"
	"fmt"
	"time"

	"uniformshop/internal/core/apperror"
	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/numerator"
	"uniformshop/internal/core/tx"
	"uniformshop/internal/core/types"
	"uniformshop/internal/domain"
	"uniformshop/pkg/logger"
)

const (
	entityName = "tailoring_order"

	EventTailoringStatusChanged = "TailoringStatusChanged"
)

// Service manages tailoring orders.
type Service struct {
	repo      Repository
	customers CustomerChecker
	numerator numerator.Generator
	txManager tx.Manager
	events    domain.EventPublisher
	audit     domain.AuditLogger
	now       func() time.Time
}

// NewService creates the tailoring service.
func NewService(repo Repository, customers CustomerChecker, gen numerator.Generator, txManager tx.Manager, events domain.EventPublisher, audit domain.AuditLogger) *Service {
	if audit == nil {
		audit = domain.NopAudit{}
	}
	return &Service{
		repo:      repo,
		customers: customers,
		numerator: gen,
		txManager: txManager,
		events:    events,
		audit:     audit,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new order in Received state.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if id.IsNil(o.ID) {
		o.ID = id.New()
	}
	o.Price = types.RoundMoney(o.Price)
	o.AdvancePaid = types.RoundMoney(o.AdvancePaid)
	if err := o.Validate(ctx); err != nil {
		return err
	}

	ok, err := s.customers.Exists(ctx, o.CustomerRef)
	if err != nil {
		return normalize(err)
	}
	if !ok {
		return apperror.NewNotFound("customer", o.CustomerRef.String())
	}

	number, err := s.numerator.Next(ctx, numerator.TailoringConfig)
	if err != nil {
		return err
	}
	now := s.now()
	o.OrderNo = number
	o.Status = StatusReceived
	o.CreatedAt, o.UpdatedAt = now, now
	o.CreatedBy = appctx.GetUserID(ctx)
	o.Version = 1

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, o); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   o.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"orderNo": o.OrderNo, "garment": o.Garment, "price": o.Price.StringFixed(2)},
		})
	})
	if err != nil {
		return normalize(err)
	}
	logger.Info(ctx, "tailoring order created", "order_no", o.OrderNo)
	return nil
}

// GetByID returns one order.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, normalize(err)
	}
	return o, nil
}

// List returns a page of orders.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*Order]{}, normalize(err)
	}
	return res, nil
}

// UpdateStatus advances the workflow. An optional additional payment is added to the advance.
func (s *Service) UpdateStatus(ctx context.Context, orderID id.ID, to Status, payment types.Money) (*Order, error) {
	if payment.IsNegative() {
		return nil, apperror.NewValidation("payment cannot be negative").WithDetail("field", "payment")
	}

	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.TransitionTo(to, s.now()); err != nil {
			return err
		}
		o.AdvancePaid = types.RoundMoney(o.AdvancePaid.Add(payment))
		if err := o.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: entityName,
			AggregateID:   o.ID,
			EventType:     EventTailoringStatusChanged,
			Payload:       map[string]any{"orderNo": o.OrderNo, "from": from, "to": to},
		}); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   o.ID,
			Action:     domain.AuditActionStatusChange,
			Changes:    map[string]any{"status": map[string]any{"old": from, "new": to}},
		})
	})
	if err != nil {
		return nil, normalize(err)
	}
	logger.Info(ctx, "tailoring order status changed", "order_no", o.OrderNo, "status", o.Status)
	return o, nil
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
