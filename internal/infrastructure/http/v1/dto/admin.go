package dto

import (
	"time"

	"uniformshop/internal/domain"
)

// CounterResponse shows the state of one identifier series.
type CounterResponse struct {
	Series string `json:"series"`
	// Value is the last allocated number, 0 when unused.
	Value int64 `json:"value"`
	// Next is the formatted identifier the next allocation will produce, if the series is known.
	Next string `json:"next,omitempty"`
}

// ResetCounterRequest sets the last allocated value.
type ResetCounterRequest struct {
	Value *int64 `json:"value" binding:"required,gte=0"`
}

// AuditEntryResponse is one audit trail row.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// FromAuditEntry creates response from domain audit entry.
func FromAuditEntry(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID.String(),
		Action:    string(e.Action),
		UserID:    e.UserID,
		Changes:   e.Changes,
		CreatedAt: e.CreatedAt,
	}
}
