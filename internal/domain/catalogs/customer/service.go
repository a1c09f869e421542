package customer

import (
	"context"
	"fmt"
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/numerator"
	"uniformshop/internal/core/tx"
	"uniformshop/internal/domain"
	"uniformshop/pkg/logger"
)

const entityName = "customer"

// Service provides business logic for customers.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	audit     domain.AuditLogger
	hooks     *domain.HookRegistry[*Customer]
}

// NewService creates a new customer service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator, audit domain.AuditLogger) *Service {
	if audit == nil {
		audit = domain.NopAudit{}
	}
	s := &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
		audit:     audit,
		hooks:     domain.NewHookRegistry[*Customer](),
	}
	s.hooks.On(domain.BeforeCreate, s.checkPhoneUnique)
	s.hooks.On(domain.BeforeCreate, s.assignCustomerID)
	s.hooks.On(domain.BeforeUpdate, s.checkPhoneUnique)
	return s
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*Customer] {
	return s.hooks
}

func (s *Service) checkPhoneUnique(ctx context.Context, c *Customer) error {
	if c.Phone == nil {
		return nil
	}
	existing, err := s.repo.FindByPhone(ctx, *c.Phone)
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return normalize(err)
	}
	if existing.ID != c.ID {
		return apperror.NewDuplicate(entityName, "phone", *c.Phone)
	}
	return nil
}

func (s *Service) assignCustomerID(ctx context.Context, c *Customer) error {
	if c.CustomerID != "" {
		return nil
	}
	code, err := s.numerator.Next(ctx, numerator.CustomerConfig)
	if err != nil {
		return err
	}
	c.CustomerID = code
	return nil
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	if err := c.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, c); err != nil {
		return err
	}

	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Version = 1

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   c.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"customerId": c.CustomerID, "name": c.Name},
		})
	})
	if err != nil {
		return normalize(err)
	}
	logger.Info(ctx, "customer created", "customer_id", c.CustomerID)
	return nil
}

// GetByID returns one customer.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, normalize(err)
	}
	return c, nil
}

// GetByCustomerID looks a customer up by CUS identifier.
func (s *Service) GetByCustomerID(ctx context.Context, code string) (*Customer, error) {
	c, err := s.repo.GetByCustomerID(ctx, code)
	if err != nil {
		return nil, normalize(err)
	}
	return c, nil
}

// Exists reports whether the customer is known.
func (s *Service) Exists(ctx context.Context, customerID id.ID) (bool, error) {
	ok, err := s.repo.Exists(ctx, customerID)
	return ok, normalize(err)
}

// List returns a page of customers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error) {
	res, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		return domain.ListResult[*Customer]{}, normalize(err)
	}
	return res, nil
}

// Update stores changed customer fields with optimistic locking.
func (s *Service) Update(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, c); err != nil {
		return err
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   c.ID,
			Action:     domain.AuditActionUpdate,
			Changes:    map[string]any{"name": c.Name, "phone": c.Phone, "email": c.Email},
		})
	})
	return normalize(err)
}

// Delete removes a customer.
func (s *Service) Delete(ctx context.Context, customerID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, customerID); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   customerID,
			Action:     domain.AuditActionDelete,
		})
	})
	return normalize(err)
}

func normalize(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewStorageUnavailable(fmt.Errorf("%s store: %w", entityName, err))
}
