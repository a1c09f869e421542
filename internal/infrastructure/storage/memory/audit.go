package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

var (
	_ domain.AuditLogger  = (*AuditLog)(nil)
	_ domain.AuditHistory = (*AuditLog)(nil)
)

// AuditEntry is a recorded change with its author.
type AuditEntry struct {
	ID id.ID
	domain.AuditRecord
	UserID    string
	CreatedAt time.Time
}

// AuditLog keeps audit records in memory.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// LogChange implements domain.AuditLogger.
func (a *AuditLog) LogChange(ctx context.Context, rec domain.AuditRecord) error {
	rec.Changes = maps.Clone(rec.Changes)
	entry := AuditEntry{
		ID:          id.New(),
		AuditRecord: rec,
		UserID:      appctx.GetUserID(ctx),
		CreatedAt:   time.Now().UTC(),
	}
	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()

	onRollback(ctx, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.entries = slices.DeleteFunc(a.entries, func(e AuditEntry) bool { return e.ID == entry.ID })
	})
	return nil
}

// Entries returns a copy of the log.
func (a *AuditLog) Entries() []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.entries)
}

// History implements domain.AuditHistory.
func (a *AuditLog) History(_ context.Context, entityType string, entityID id.ID, limit int) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditEntry, 0)
	for i := len(a.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := a.entries[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		out = append(out, domain.AuditEntry{
			ID:         e.ID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			UserID:     e.UserID,
			Changes:    maps.Clone(e.Changes),
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}
