package domain

import (
	"time"

	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// Payment is the aggregate root of the reliability core. Every field
// mutation flows through the coordinator, which enforces the
// invariants below via the state machine and version CAS; Payment
// itself only validates structural well-formedness.
type Payment struct {
	ID             string        `json:"id"`
	IdempotencyKey string        `json:"idempotencyKey"`
	MerchantID     string        `json:"merchantId"`
	State          State         `json:"state"`
	Amount         Money         `json:"amount"`
	Method         PaymentMethod `json:"paymentMethod"`
	Customer       Customer      `json:"customer"`

	// Gateway is empty until the AUTHENTICATED transition.
	Gateway string `json:"gateway,omitempty"`
	// GatewayTransactionID is empty until the PROCESSING transition.
	GatewayTransactionID string `json:"gatewayTransactionId,omitempty"`
	// FailureReason is set only when State is FAILURE.
	FailureReason string `json:"failureReason,omitempty"`

	Version int `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Metadata Metadata `json:"metadata,omitempty"`
}

// NewPayment constructs a fresh aggregate in the INITIATED state at
// version 1. Callers must have already validated the request fields;
// NewPayment only stamps identity, timestamps, and the starting state.
func NewPayment(merchantID, idempotencyKey string, amount Money, method PaymentMethod, customer Customer, metadata map[string]any) Payment {
	now := time.Now()
	return Payment{
		ID:             NewPaymentID(),
		IdempotencyKey: idempotencyKey,
		MerchantID:     merchantID,
		State:          StateInitiated,
		Amount:         amount.Round(),
		Method:         method,
		Customer:       customer,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		Metadata:       SanitizeMetadata(metadata),
	}
}

// CheckInvariants validates the structural invariants that hold for
// every reachable state: gateway and gatewayTransactionId must be set
// once assigned, and failureReason is set in FAILURE and empty in
// every other state.
func (p Payment) CheckInvariants() error {
	switch p.State {
	case StateAuthenticated, StateProcessing, StateSuccess:
		if p.Gateway == "" {
			return errors.ErrValidation.WithDetails("field", "gateway").WithDetails("reason", "must be assigned in this state")
		}
	}
	switch p.State {
	case StateProcessing, StateSuccess:
		if p.GatewayTransactionID == "" {
			return errors.ErrValidation.WithDetails("field", "gatewayTransactionId").WithDetails("reason", "must be assigned in this state")
		}
	}
	if p.State == StateFailure && p.FailureReason == "" {
		return errors.ErrValidation.WithDetails("field", "failureReason").WithDetails("reason", "required in FAILURE")
	}
	if p.State != StateFailure && p.FailureReason != "" {
		return errors.ErrValidation.WithDetails("field", "failureReason").WithDetails("reason", "must be empty outside FAILURE")
	}
	return p.Amount.Validate()
}

// Clone returns a deep-enough copy safe to mutate without aliasing the
// receiver's Metadata map — used by the coordinator to build the
// next version from a loaded snapshot.
func (p Payment) Clone() Payment {
	next := p
	if p.Metadata != nil {
		next.Metadata = make(Metadata, len(p.Metadata))
		for k, v := range p.Metadata {
			next.Metadata[k] = v
		}
	}
	return next
}
