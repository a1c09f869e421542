package domain

import (
	"context"
	"time"

	"uniformshop/internal/core/id"
)

// Event is a domain event written to the transactional outbox.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// EventPublisher stores events atomically with the business change.
// Publish must be called inside RunInTransaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate       AuditAction = "create"
	AuditActionUpdate       AuditAction = "update"
	AuditActionDelete       AuditAction = "delete"
	AuditActionStatusChange AuditAction = "status_change"
	AuditActionStock        AuditAction = "stock"
)

// AuditRecord describes one audited change.
type AuditRecord struct {
	EntityType string
	EntityID   id.ID
	Action     AuditAction
	Changes    map[string]any
}

// AuditLogger persists audit records. The acting user is taken from ctx.
type AuditLogger interface {
	LogChange(ctx context.Context, rec AuditRecord) error
}

// AuditEntry is a stored audit record with its author.
type AuditEntry struct {
	ID         id.ID          `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   id.ID          `json:"entityId"`
	Action     AuditAction    `json:"action"`
	UserID     string         `json:"userId,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditHistory reads the audit trail of one entity, newest first.
type AuditHistory interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error)
}

// NopAudit discards audit records.
type NopAudit struct{}

// LogChange implements AuditLogger.
func (NopAudit) LogChange(context.Context, AuditRecord) error { return nil }
