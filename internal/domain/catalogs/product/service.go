package product

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

const entityName = "product"

// Service provides business logic for the product catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	audit     domain.AuditLogger
	hooks     *domain.HookRegistry[*Product]
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator, audit domain.AuditLogger) *Service {
	if audit == nil {
		audit = domain.NopAudit{}
	}
	s := &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
		audit:     audit,
		hooks:     domain.NewHookRegistry[*Product](),
	}
	s.hooks.On(domain.BeforeCreate, s.prepareForCreate)
	return s
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*Product] {
	return s.hooks
}

// prepareForCreate assigns the business identifier.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.ProductID != "" {
		return nil
	}
	code, err := s.numerator.Next(ctx, numerator.ProductConfig)
	if err != nil {
		return err
	}
	p.ProductID = code
	return nil
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, p); err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Version = 1

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   p.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"productId": p.ProductID, "name": p.Name, "stockQuantity": p.StockQuantity},
		})
	})
	if err != nil {
		return normalize(err)
	}

	logger.Info(ctx, "product created", "product_id", p.ProductID, "id", p.ID)
	return s.hooks.Run(ctx, domain.AfterCreate, p)
}

// GetByID returns one product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, normalize(err)
	}
	return p, nil
}

// GetByProductID looks a product up by its PRD identifier.
func (s *Service) GetByProductID(ctx context.Context, code string) (*Product, error) {
	p, err := s.repo.GetByProductID(ctx, code)
	if err != nil {
		return nil, normalize(err)
	}
	return p, nil
}

// List returns a filtered page of products.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*Product]{}, normalize(err)
	}
	return res, nil
}

// Update changes descriptive fields. Stock is not touched here.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, p); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   p.ID,
			Action:     domain.AuditActionUpdate,
			Changes: map[string]any{
				"name": p.Name, "category": p.Category, "size": p.Size,
				"unitPrice": p.UnitPrice.String(), "lowStockThreshold": p.LowStockThreshold,
			},
		})
	})
	if err != nil {
		return normalize(err)
	}
	return s.hooks.Run(ctx, domain.AfterUpdate, p)
}

// Delete removes a product. Invoices keep their own snapshot of name and price.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, productID); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   productID,
			Action:     domain.AuditActionDelete,
		})
	})
	return normalize(err)
}

// Restock atomically adds qty units and returns the updated product.
func (s *Service) Restock(ctx context.Context, productID id.ID, qty int64, reason string) (*Product, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("restock quantity must be positive").WithDetail("field", "quantity")
	}

	var updated *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		newQty, err := s.repo.IncrementStock(ctx, productID, qty)
		if err != nil {
			return err
		}
		if err := s.audit.LogChange(ctx, domain.AuditRecord{
			EntityType: entityName,
			EntityID:   productID,
			Action:     domain.AuditActionStock,
			Changes:    map[string]any{"delta": qty, "stockQuantity": newQty, "reason": reason},
		}); err != nil {
			return err
		}
		updated, err = s.repo.GetByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, normalize(err)
	}

	logger.Info(ctx, "product restocked", "id", productID, "delta", qty, "stock", updated.StockQuantity)
	return updated, nil
}

// normalize keeps AppErrors and hides everything else behind STORAGE_UNAVAILABLE.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewStorageUnavailable(fmt.Errorf("%s store: %w", entityName, err))
}
