// Package main is the entry point for the uniformshop background worker.
// It relays domain events from the outbox and expires idempotency records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uniformshop/internal/config"
	"uniformshop/internal/core/idempotency"
	"uniformshop/internal/infrastructure/metrics"
	"uniformshop/internal/infrastructure/storage"
	"uniformshop/internal/infrastructure/storage/postgres"
	"uniformshop/pkg/logger"
)

// publishedRetention is how long relayed events stay in the outbox.
const publishedRetention = 7 * 24 * time.Hour

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

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	if cfg.StorageDriver != config.DriverPostgres {
		log.Infow("worker has nothing to do for this storage driver", "storage", cfg.StorageDriver)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, err := storage.NewPostgres(ctx, storage.PostgresConfig{
		DSN:            cfg.DatabaseURL,
		MaxConns:       int32(cfg.DBMaxConns),
		IdempotencyTTL: cfg.IdempotencyTTL,
	})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer backend.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	w := &Worker{
		relay:       postgres.NewOutboxRelay(backend.Pool.Pool, cfg.OutboxBatchSize, eventLogger(log)),
		idempotency: backend.Idempotency,
		metrics:     m,
		log:         log.WithComponent("worker"),
		interval:    cfg.OutboxPollInterval,
	}

	log.Infow("worker started", "poll_interval", cfg.OutboxPollInterval, "batch_size", cfg.OutboxBatchSize)
	w.Run(ctx)
	log.Info("worker stopped")
}

// eventLogger delivers outbox events to the log. It stands in for a broker publisher.
func eventLogger(log *logger.Logger) postgres.OutboxHandler {
	l := log.WithComponent("events")
	return postgres.OutboxHandlerFunc(func(_ context.Context, msg *postgres.OutboxMessage) error {
		l.Infow("event",
			"event_type", msg.EventType,
			"aggregate_type", msg.AggregateType,
			"aggregate_id", msg.AggregateID,
			"payload", string(msg.Payload),
		)
		return nil
	})
}

// Worker runs the periodic background jobs.
type Worker struct {
	relay       *postgres.OutboxRelay
	idempotency idempotency.Store
	metrics     *metrics.Metrics
	log         *logger.Logger
	interval    time.Duration
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.relayOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) relayOutbox(ctx context.Context) {
	res, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("outbox batch failed", "error", err)
		}
		return
	}
	if w.metrics != nil {
		w.metrics.ObserveOutbox("published", res.Published)
		w.metrics.ObserveOutbox("retried", res.Retried)
		w.metrics.ObserveOutbox("failed", res.Failed)
	}
	if res.Published+res.Retried+res.Failed > 0 {
		w.log.Debugw("processed outbox batch",
			"published", res.Published, "retried", res.Retried, "failed", res.Failed)
	}
	if res.Failed > 0 {
		w.log.Warnw("outbox messages exhausted retries", "count", res.Failed)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, publishedRetention); err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published events", "count", n)
	}
}
