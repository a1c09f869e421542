// Package main is the entry point for the uniformshop API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"uniformshop/internal/config"
	"uniformshop/internal/domain/auth"
	v1 "uniformshop/internal/infrastructure/http/v1"
	"uniformshop/internal/infrastructure/metrics"
	"uniformshop/internal/infrastructure/numerator"
	"uniformshop/internal/infrastructure/storage"
	"uniformshop/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()
	log.Infow("starting uniformshop server", "storage", cfg.StorageDriver, "env", cfg.Env)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer backend.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		if backend.Pool != nil {
			m.RegisterPool(backend.Pool)
		}
	}

	// --- Numerator ---
	gen := numerator.New(backend.Counters, numerator.Options{
		MaxAttempts: cfg.AllocatorMaxAttempts,
		BaseDelay:   cfg.AllocatorBaseDelay,
	})
	if m != nil {
		gen.WithObserver(m)
	}

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	jwtService := auth.NewJWTService(jwtConfig)
	authService := auth.NewService(backend.Users, jwtService, auth.DefaultServiceConfig())

	mode := gin.ReleaseMode
	if cfg.IsDevelopment() {
		mode = gin.DebugMode
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:             log,
		Backend:            backend,
		Numerator:          gen,
		JWTValidator:       jwtService,
		AuthService:        authService,
		Metrics:            m,
		IdempotencyEnabled: cfg.IdempotencyEnabled,
		LoginRateRPS:       cfg.LoginRateRPS,
		LoginRateBurst:     cfg.LoginRateBurst,
		Mode:               mode,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func openBackend(ctx context.Context, cfg config.Config) (*storage.Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return storage.NewMemory(cfg.IdempotencyTTL), nil
	default:
		return storage.NewPostgres(ctx, storage.PostgresConfig{
			DSN:            cfg.DatabaseURL,
			MaxConns:       int32(cfg.DBMaxConns),
			IdempotencyTTL: cfg.IdempotencyTTL,
			Migrate:        true,
		})
	}
}
