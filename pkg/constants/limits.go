package constants

// Payment amount constraints.
const (
	// MinPaymentAmount is the smallest allowed payment amount (major units).
	MinPaymentAmount = 0.01

	// MaxPaymentAmount is the largest allowed payment amount (major units).
	MaxPaymentAmount = 999_999_999
)

// Batch processing constants.
const (
	DefaultOutboxBatchSize = 50
	MaxOutboxBatchSize     = 500
)

// Validation limits.
const (
	MinIdempotencyKeyLength = 1
	MaxIdempotencyKeyLength = 255

	MaxMetadataKeyLength   = 128
	MaxMetadataValueLength = 1000

	MinPhoneLength = 10
)

// Retry constants.
const (
	MaxConcurrentModificationRetries = 5
)
