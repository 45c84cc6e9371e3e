package domain

import (
	"regexp"

	"github.com/bugielektrik/orchestra-pay/pkg/constants"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Customer describes the party the payment is collected from.
type Customer struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	BillingCountry string `json:"billingCountry,omitempty"`
}

// Validate enforces the customer validation rules.
func (c Customer) Validate() error {
	if c.ID == "" {
		return errors.ErrValidation.WithDetails("field", "customer.id").WithDetails("reason", "cannot be blank")
	}
	if !emailPattern.MatchString(c.Email) {
		return errors.ErrValidation.WithDetails("field", "customer.email").WithDetails("reason", "invalid email format")
	}
	if c.Phone != "" && len(c.Phone) < constants.MinPhoneLength {
		return errors.ErrValidation.WithDetails("field", "customer.phone").WithDetails("reason", "too short")
	}
	return nil
}
