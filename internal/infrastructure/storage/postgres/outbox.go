package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is the number of failed deliveries after which a message is parked as failed.
const MaxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"` // e.g. "invoice", "product"
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"` // e.g. "InvoiceCreated"
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event to the outbox within the current transaction.
// MUST be called inside a transaction context.
func (p *OutboxPublisher) Publish(ctx context.Context, event domain.Event) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, payload, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	// Handle delivers a message; an error schedules a retry.
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// BatchResult summarizes one relay pass.
type BatchResult struct {
	Published int
	Retried   int
	Failed    int
}

// OutboxRelay reads and processes messages from the outbox.
// Several relays may run at once: rows are claimed with FOR UPDATE SKIP LOCKED.
type OutboxRelay struct {
	pool      *pgxpool.Pool
	batchSize int
	handler   OutboxHandler
	backoff   func(retry int) time.Duration
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(pool *pgxpool.Pool, batchSize int, handler OutboxHandler) *OutboxRelay {
	return &OutboxRelay{
		pool:      pool,
		batchSize: batchSize,
		handler:   handler,
		backoff:   OutboxBackoff,
	}
}

// OutboxBackoff doubles the wait per retry starting at 30s, capped at 30 minutes.
func OutboxBackoff(retry int) time.Duration {
	d := 30 * time.Second
	for i := 1; i < retry && d < 30*time.Minute; i++ {
		d *= 2
	}
	return min(d, 30*time.Minute)
}

// ProcessBatch claims due pending messages and hands them to the handler.
// Claim and status updates share one transaction so a crashed worker releases its rows.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (BatchResult, error) {
	var res BatchResult

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var messages []*OutboxMessage
	err = pgxscan.Select(ctx, tx, &messages, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
		       retry_count, last_error, next_retry_at, created_at, published_at
		FROM sys_outbox
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, OutboxStatusPending, r.batchSize)
	if err != nil {
		return res, fmt.Errorf("fetch outbox messages: %w", err)
	}

	for _, msg := range messages {
		if herr := r.handler.Handle(ctx, msg); herr != nil {
			retries := msg.RetryCount + 1
			status := OutboxStatusPending
			if retries >= MaxOutboxRetries {
				status = OutboxStatusFailed
				res.Failed++
			} else {
				res.Retried++
			}
			_, err = tx.Exec(ctx, `
				UPDATE sys_outbox
				SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
				WHERE id = $5
			`, retries, herr.Error(), time.Now().UTC().Add(r.backoff(retries)), status, msg.ID)
			if err != nil {
				return res, fmt.Errorf("update failed message: %w", err)
			}
			continue
		}

		if _, err = tx.Exec(ctx, `
			UPDATE sys_outbox SET status = $1, published_at = NOW() WHERE id = $2
		`, OutboxStatusPublished, msg.ID); err != nil {
			return res, fmt.Errorf("mark published: %w", err)
		}
		res.Published++
	}

	if err := tx.Commit(ctx); err != nil {
		return BatchResult{}, fmt.Errorf("commit outbox tx: %w", err)
	}
	return res, nil
}

// PurgePublished removes published messages older than retention.
func (r *OutboxRelay) PurgePublished(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2
	`, OutboxStatusPublished, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}
