package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

var _ domain.EventPublisher = (*Outbox)(nil)

// OutboxMessage is a stored domain event.
type OutboxMessage struct {
	ID            id.ID
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Outbox collects events written inside transactions.
type Outbox struct {
	mu       sync.Mutex
	messages []OutboxMessage
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Publish implements domain.EventPublisher. It must run inside a transaction.
func (o *Outbox) Publish(ctx context.Context, event domain.Event) error {
	if journalFrom(ctx) == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	msg := OutboxMessage{
		ID:            id.New(),
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
	o.mu.Lock()
	o.messages = append(o.messages, msg)
	o.mu.Unlock()

	onRollback(ctx, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.messages = slices.DeleteFunc(o.messages, func(m OutboxMessage) bool { return m.ID == msg.ID })
	})
	return nil
}

// Drain returns and removes all stored messages.
func (o *Outbox) Drain() []OutboxMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.messages
	o.messages = nil
	return out
}

// Messages returns a copy of the stored messages.
func (o *Outbox) Messages() []OutboxMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.messages)
}
