package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations registers custom validation rules
func (v *Validator) RegisterCustomValidations() {
	v.validate.RegisterValidation("idempkey", validateIdempotencyKey)
	v.validate.RegisterValidation("phone", validatePhone)
}

// validateIdempotencyKey validates the caller-supplied idempotency key
// format: 1-255 chars, [A-Za-z0-9_-]+.
func validateIdempotencyKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if len(key) < 1 || len(key) > 255 {
		return false
	}
	idempKeyRegex := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	return idempKeyRegex.MatchString(key)
}

// validatePhone validates phone number format
func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	// Simple phone validation (international format)
	phoneRegex := regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	return phoneRegex.MatchString(phone)
}
