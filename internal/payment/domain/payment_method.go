package domain

import (
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
	"github.com/bugielektrik/orchestra-pay/pkg/validation"
)

// PaymentMethodType is the closed set of payment method tags.
type PaymentMethodType string

const (
	MethodCard       PaymentMethodType = "CARD"
	MethodUPI        PaymentMethodType = "UPI"
	MethodNetBanking PaymentMethodType = "NET_BANKING"
	MethodWallet     PaymentMethodType = "WALLET"
	MethodPayLater   PaymentMethodType = "PAY_LATER"
)

var allMethodTypes = []PaymentMethodType{
	MethodCard, MethodUPI, MethodNetBanking, MethodWallet, MethodPayLater,
}

// CardDetails holds the per-variant fields required when Type is
// MethodCard. Number is stored exactly as the caller supplies it; it
// is not masked or tokenised here.
type CardDetails struct {
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
}

// PaymentMethod is a tagged variant: Type selects which of the
// per-variant detail fields is populated. CARD requires Card and UPI
// requires VPA; NetBanking/Wallet/PayLater have no required detail
// fields.
type PaymentMethod struct {
	Type PaymentMethodType `json:"type"`
	Card *CardDetails      `json:"card,omitempty"`
	VPA  string            `json:"vpa,omitempty"`
}

// Validate enforces the per-variant requirements for each payment
// method type.
func (m PaymentMethod) Validate() error {
	if err := validation.ValidateEnum(m.Type, "paymentMethod.type", allMethodTypes); err != nil {
		return err
	}
	switch m.Type {
	case MethodCard:
		if m.Card == nil || m.Card.Number == "" {
			return errors.ErrValidation.WithDetails("field", "paymentMethod.card.number").WithDetails("reason", "required for CARD")
		}
		if err := validation.ValidateRange(m.Card.ExpiryMonth, "paymentMethod.card.expiryMonth", 1, 12); err != nil {
			return err
		}
		if m.Card.ExpiryYear < 1 {
			return errors.ErrValidation.WithDetails("field", "paymentMethod.card.expiryYear").WithDetails("reason", "required for CARD")
		}
	case MethodUPI:
		if m.VPA == "" {
			return errors.ErrValidation.WithDetails("field", "paymentMethod.vpa").WithDetails("reason", "required for UPI")
		}
	}
	return nil
}
