// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"uniformshop/internal/config"
	"uniformshop/internal/core/apperror"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/auth"
	"uniformshop/internal/domain/catalogs/product"
	"uniformshop/internal/infrastructure/numerator"
	"uniformshop/internal/infrastructure/storage"
	"uniformshop/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()

	backend, err := storage.NewPostgres(ctx, storage.PostgresConfig{
		DSN:     cfg.DatabaseURL,
		Migrate: true,
	})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer backend.Close()

	log.Info("connected to database")

	if err := seedAdminUser(ctx, backend, cfg, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoProducts(ctx, backend, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, b *storage.Backend, cfg config.Config, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@uniformshop.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
	svc := auth.NewService(b.Users, jwtService, auth.DefaultServiceConfig())

	user, err := svc.CreateUser(ctx, auth.CreateUserRequest{
		Email:    adminEmail,
		Password: adminPassword,
		Name:     "System Admin",
		Role:     auth.RoleAdmin,
	})
	if apperror.HasCode(err, apperror.CodeDuplicate) {
		log.Infow("admin user already exists", "email", adminEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", user.ID)
	return nil
}

func seedDemoProducts(ctx context.Context, b *storage.Backend, log *logger.Logger) error {
	existing, err := b.Products.List(ctx, product.ListFilter{ListFilter: domain.ListFilter{Limit: 1}})
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if existing.TotalCount > 0 {
		log.Infow("catalog already has products, skipping demo data", "count", existing.TotalCount)
		return nil
	}

	gen := numerator.New(b.Counters, numerator.Options{})
	svc := product.NewService(b.Products, b.TxManager, gen, b.Audit)

	demo := []struct {
		name     string
		category string
		size     string
		price    string
		stock    int64
	}{
		{"School shirt white", "Shirts", "S", "450", 40},
		{"School shirt white", "Shirts", "M", "450", 40},
		{"School shirt white", "Shirts", "L", "480", 30},
		{"Grey trousers", "Trousers", "M", "650", 25},
		{"Pleated skirt navy", "Skirts", "M", "600", 25},
		{"Blazer navy", "Blazers", "M", "1800", 10},
		{"Striped tie", "Accessories", "", "150", 60},
		{"House t-shirt", "Sportswear", "M", "300", 50},
	}

	for _, d := range demo {
		p := &product.Product{
			Name:              d.name,
			Category:          d.category,
			Size:              d.size,
			UnitPrice:         decimal.RequireFromString(d.price),
			StockQuantity:     d.stock,
			LowStockThreshold: 5,
		}
		if err := svc.Create(ctx, p); err != nil {
			log.Warnw("failed to seed product", "name", d.name, "size", d.size, "error", err)
			continue
		}
		log.Infow("product seeded", "product_id", p.ProductID, "name", p.Name)
	}
	return nil
}
