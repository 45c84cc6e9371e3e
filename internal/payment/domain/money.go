package domain

import (
	"github.com/shopspring/decimal"

	"github.com/bugielektrik/orchestra-pay/pkg/constants"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// Currency is a closed set of supported ISO-4217 currency codes.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	INR Currency = "INR"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
)

var validCurrencies = map[Currency]bool{
	USD: true, EUR: true, GBP: true, INR: true, AUD: true, CAD: true,
}

// IsValid reports whether c belongs to the supported currency set.
func (c Currency) IsValid() bool {
	return validCurrencies[c]
}

// Money is a non-negative amount rounded to two decimal places, paired
// with its currency. It wraps decimal.Decimal rather than a float so
// repeated arithmetic on the coordinator's hot path never accumulates
// binary rounding error.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// NewMoney validates and constructs a Money value.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	m := Money{Amount: amount, Currency: currency}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Validate enforces the amount and currency constraints.
func (m Money) Validate() error {
	if !m.Currency.IsValid() {
		return errors.ErrValidation.WithDetails("field", "currency").WithDetails("reason", "unsupported currency")
	}
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.ErrValidation.WithDetails("field", "amount").WithDetails("reason", "must be greater than 0")
	}
	max := decimal.NewFromInt(constants.MaxPaymentAmount)
	if m.Amount.GreaterThan(max) {
		return errors.ErrValidation.WithDetails("field", "amount").WithDetails("reason", "exceeds maximum allowed amount")
	}
	if m.Amount.Exponent() < -2 {
		return errors.ErrValidation.WithDetails("field", "amount").WithDetails("reason", "more than 2 decimal places")
	}
	return nil
}

// Round returns m with Amount rounded to 2 decimal places (bankers'
// rounding is not required here; half-away-from-zero matches the
// source's fixed-point behaviour closely enough for the core).
func (m Money) Round() Money {
	m.Amount = m.Amount.Round(2)
	return m
}
