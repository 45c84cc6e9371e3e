// Package outbox implements the transactional-outbox pattern: state
// transitions and the domain events that describe them are persisted
// atomically, then delivered to an external event bus at-least-once
// by a polling background publisher.
package outbox

import (
	"time"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
)

// Status is the outbox entry's delivery lifecycle.
type Status string

const (
	Pending    Status = "PENDING"
	Processing Status = "PROCESSING"
	Published  Status = "PUBLISHED"
	Failed     Status = "FAILED"
)

// Entry is the durable delivery record for one PaymentEvent.
type Entry struct {
	ID          string // = event.EventID
	AggregateID string
	EventType   domain.EventType
	Payload     domain.PaymentEvent
	Status      Status
	CreatedAt   time.Time
	PublishedAt *time.Time
	Attempts    int
	LastError   string
	NextRetryAt *time.Time
}

// NewEntry builds a PENDING entry from a PaymentEvent.
func NewEntry(event domain.PaymentEvent) Entry {
	return Entry{
		ID:          event.EventID,
		AggregateID: event.AggregateID,
		EventType:   event.EventType,
		Payload:     event,
		Status:      Pending,
		CreatedAt:   time.Now(),
	}
}
