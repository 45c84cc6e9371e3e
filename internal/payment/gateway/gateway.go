// Package gateway defines the narrow contract the reliability core
// uses to talk to external payment processors, plus a demo
// implementation for local development and tests.
package gateway

import (
	"context"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
)

// AuthResult is returned by Authenticate.
type AuthResult struct {
	AuthToken string
}

// InitiateResult is returned by Initiate.
type InitiateResult struct {
	GatewayTransactionID string
}

// ProcessResult is returned by Process.
type ProcessResult struct {
	Success       bool
	TransactionID string
}

// Gateway is the external collaborator the coordinator drives through
// the circuit breaker and retry policy. Implementations are not part
// of this core; only this interface is.
type Gateway interface {
	Name() string
	Authenticate(ctx context.Context, payment domain.Payment) (AuthResult, error)
	Initiate(ctx context.Context, payment domain.Payment) (InitiateResult, error)
	Process(ctx context.Context, payment domain.Payment) (ProcessResult, error)
}

// Error is the error type every Gateway method returns on failure. It
// is a sum of a reason string and an IsRetryable flag so the
// coordinator's retry policy can decide without inspecting message
// text.
type Error struct {
	Reason      string
	isRetryable bool
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether the coordinator's retry policy should
// retry the call that produced this error.
func (e *Error) IsRetryable() bool { return e.isRetryable }

// NewRetryableError wraps a transient network/timeout class failure.
func NewRetryableError(reason string, err error) *Error {
	return &Error{Reason: reason, isRetryable: true, Err: err}
}

// NewNonRetryableError wraps a terminal failure: authentication,
// validation, or a decline from the processor.
func NewNonRetryableError(reason string, err error) *Error {
	return &Error{Reason: reason, isRetryable: false, Err: err}
}
