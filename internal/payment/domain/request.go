package domain

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/bugielektrik/orchestra-pay/pkg/errors"
	"github.com/bugielektrik/orchestra-pay/pkg/validation"
)

var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CreatePaymentRequest is the validated input to Coordinator.CreatePayment.
type CreatePaymentRequest struct {
	MerchantID     string
	IdempotencyKey string
	Amount         decimal.Decimal
	Currency       Currency
	Method         PaymentMethod
	Customer       Customer
	Metadata       map[string]any
}

// Validate runs every field rule over the request and returns a
// ValidationError carrying the first violation found.
func (r CreatePaymentRequest) Validate() error {
	if err := validation.RequiredString(r.MerchantID, "merchantId"); err != nil {
		return err
	}
	if len(r.IdempotencyKey) < 1 || len(r.IdempotencyKey) > 255 || !idempotencyKeyPattern.MatchString(r.IdempotencyKey) {
		return errors.ErrValidation.WithDetails("field", "idempotencyKey").WithDetails("reason", "must be 1-255 chars of [A-Za-z0-9_-]")
	}
	if _, err := NewMoney(r.Amount, r.Currency); err != nil {
		return err
	}
	if err := r.Method.Validate(); err != nil {
		return err
	}
	if err := r.Customer.Validate(); err != nil {
		return err
	}
	return nil
}

// ProcessPaymentRequest is the validated input to Coordinator.ProcessPayment.
type ProcessPaymentRequest struct {
	PaymentID string
	// GatewayType, if non-empty, forces gateway selection and bypasses
	// the router.
	GatewayType   string
	CorrelationID string
}

// Validate checks the payment id is present; the repository lookup
// surfaces a PaymentNotFound if it doesn't resolve to a row.
func (r ProcessPaymentRequest) Validate() error {
	return validation.RequiredString(r.PaymentID, "paymentId")
}
