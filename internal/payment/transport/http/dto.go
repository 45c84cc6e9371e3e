package http

import (
	"github.com/shopspring/decimal"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
)

// createPaymentDTO is the wire shape for POST /payments. Its validate
// tags are a first, cheap rejection pass; domain.CreatePaymentRequest.
// Validate still runs the authoritative rules once mapped.
type createPaymentDTO struct {
	MerchantID     string            `json:"merchantId" validate:"required"`
	IdempotencyKey string            `json:"idempotencyKey" validate:"required,idempkey"`
	Amount         decimal.Decimal   `json:"amount" validate:"required"`
	Currency       string            `json:"currency" validate:"required,len=3"`
	PaymentMethod  paymentMethodDTO  `json:"paymentMethod" validate:"required"`
	Customer       customerDTO       `json:"customer" validate:"required"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
}

type paymentMethodDTO struct {
	Type        string `json:"type" validate:"required"`
	CardNumber  string `json:"cardNumber,omitempty"`
	ExpiryMonth int    `json:"expiryMonth,omitempty"`
	ExpiryYear  int    `json:"expiryYear,omitempty"`
	VPA         string `json:"vpa,omitempty"`
}

type customerDTO struct {
	ID             string `json:"id" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,phone"`
	BillingCountry string `json:"billingCountry,omitempty"`
}

func (d createPaymentDTO) toDomain() domain.CreatePaymentRequest {
	method := domain.PaymentMethod{
		Type: domain.PaymentMethodType(d.PaymentMethod.Type),
		VPA:  d.PaymentMethod.VPA,
	}
	if d.PaymentMethod.CardNumber != "" {
		method.Card = &domain.CardDetails{
			Number:      d.PaymentMethod.CardNumber,
			ExpiryMonth: d.PaymentMethod.ExpiryMonth,
			ExpiryYear:  d.PaymentMethod.ExpiryYear,
		}
	}

	return domain.CreatePaymentRequest{
		MerchantID:     d.MerchantID,
		IdempotencyKey: d.IdempotencyKey,
		Amount:         d.Amount,
		Currency:       domain.Currency(d.Currency),
		Method:         method,
		Customer: domain.Customer{
			ID:             d.Customer.ID,
			Email:          d.Customer.Email,
			Phone:          d.Customer.Phone,
			BillingCountry: d.Customer.BillingCountry,
		},
		Metadata: d.Metadata,
	}
}

// processPaymentDTO is the wire shape for POST /payments/{id}/process.
type processPaymentDTO struct {
	GatewayType   string `json:"gatewayType,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (d processPaymentDTO) toDomain(paymentID string) domain.ProcessPaymentRequest {
	return domain.ProcessPaymentRequest{
		PaymentID:     paymentID,
		GatewayType:   d.GatewayType,
		CorrelationID: d.CorrelationID,
	}
}
