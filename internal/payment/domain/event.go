package domain

import "time"

// EventType names one event per state transition the coordinator
// performs. The set is closed and dense with State's transition table.
type EventType string

const (
	EventPaymentInitiated    EventType = "PaymentInitiated"
	EventPaymentAuthenticated EventType = "PaymentAuthenticated"
	EventPaymentProcessing   EventType = "PaymentProcessing"
	EventPaymentSucceeded    EventType = "PaymentSucceeded"
	EventPaymentFailed       EventType = "PaymentFailed"
)

// PaymentEvent is the immutable record appended to the outbox every
// time the coordinator transitions a payment. Version mirrors the
// payment's Version field at the moment the event is produced, so the
// two sequences never drift apart.
type PaymentEvent struct {
	EventID       string    `json:"eventId"`
	AggregateID   string    `json:"aggregateId"`
	EventType     EventType `json:"eventType"`
	Version       int       `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       Payment   `json:"payload"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// NewPaymentEvent snapshots payment into an event of the given type.
// The caller must pass payment after the transition has already been
// applied so Version and Payload agree.
func NewPaymentEvent(eventType EventType, payment Payment, correlationID string) PaymentEvent {
	return PaymentEvent{
		EventID:       NewEventID(),
		AggregateID:   payment.ID,
		EventType:     eventType,
		Version:       payment.Version,
		Timestamp:     time.Now(),
		Payload:       payment,
		CorrelationID: correlationID,
	}
}
