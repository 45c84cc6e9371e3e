package errors

import "net/http"

// Domain-specific errors for the payment orchestration core.
//
// These mirror the error taxonomy of the reliability core: each sentinel
// names a *kind* of failure, not a single call site. Use Wrap to attach the
// underlying cause and WithDetails to attach structured context (payment
// id, gateway name, expected/actual version, ...).

// State machine errors
var (
	// ErrInvalidStateTransition is returned when a transition is not in the
	// state machine's transition table. Surfacing this usually indicates a
	// programming bug, not a runtime race.
	ErrInvalidStateTransition = &Error{
		Code:       "INVALID_STATE_TRANSITION",
		Message:    "invalid payment state transition",
		HTTPStatus: http.StatusConflict,
	}

	// ErrTerminalStateViolation is returned when a transition is attempted
	// from a terminal state (SUCCESS or FAILURE).
	ErrTerminalStateViolation = &Error{
		Code:       "TERMINAL_STATE_VIOLATION",
		Message:    "payment is in a terminal state",
		HTTPStatus: http.StatusConflict,
	}

	// ErrConcurrentModification is returned when an optimistic-concurrency
	// compare-and-swap fails because the expected version is stale.
	ErrConcurrentModification = &Error{
		Code:       "CONCURRENT_MODIFICATION",
		Message:    "payment was concurrently modified",
		HTTPStatus: http.StatusConflict,
	}

	// ErrOptimisticLock names a version-guarded update that affected
	// zero rows. Repository.UpdateWithVersion reports that case as
	// UpdateResult.Conflict rather than returning this error.
	ErrOptimisticLock = &Error{
		Code:       "OPTIMISTIC_LOCK_ERROR",
		Message:    "optimistic lock conflict",
		HTTPStatus: http.StatusConflict,
	}
)

// Lock manager errors
var (
	// ErrLockTimeout is returned when withLock cannot acquire a named lock
	// before maxWait elapses.
	ErrLockTimeout = &Error{
		Code:       "LOCK_TIMEOUT",
		Message:    "timed out waiting for lock",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)

// Idempotency engine errors
var (
	// ErrFingerprintMismatch is returned when a second request reuses an
	// idempotency key with a different request body.
	ErrFingerprintMismatch = &Error{
		Code:       "FINGERPRINT_MISMATCH",
		Message:    "idempotency key reused with a different request body",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrIdempotencyLock is returned when the distributed lock guarding the
	// idempotency record cannot be acquired.
	ErrIdempotencyLock = &Error{
		Code:       "IDEMPOTENCY_LOCK_ERROR",
		Message:    "could not acquire idempotency lock",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	// ErrIdempotencyTimeout is returned when polling an in-flight
	// idempotent request does not reach a terminal state in time.
	ErrIdempotencyTimeout = &Error{
		Code:       "IDEMPOTENCY_TIMEOUT",
		Message:    "timed out waiting for in-flight request to finish",
		HTTPStatus: http.StatusGatewayTimeout,
	}
)

// Circuit breaker errors
var (
	// ErrCircuitOpen is returned when a gateway call is rejected because its
	// circuit breaker is OPEN, or HALF_OPEN with its probe quota exhausted.
	ErrCircuitOpen = &Error{
		Code:       "CIRCUIT_OPEN",
		Message:    "gateway circuit is open",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)

// Gateway errors
var (
	// ErrGatewayRetryable marks a transient gateway failure eligible for
	// the retry policy (network/timeout class errors).
	ErrGatewayRetryable = &Error{
		Code:       "GATEWAY_ERROR_RETRYABLE",
		Message:    "gateway call failed transiently",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrGatewayNonRetryable marks a terminal gateway failure (declined,
	// invalid request, authentication failure).
	ErrGatewayNonRetryable = &Error{
		Code:       "GATEWAY_ERROR",
		Message:    "gateway call failed",
		HTTPStatus: http.StatusBadGateway,
	}
)

// Outbox errors
var (
	// ErrOutboxPublish marks a failure publishing an outbox entry to the
	// event bus. Never surfaced to the request caller; only the publisher
	// retries on this.
	ErrOutboxPublish = &Error{
		Code:       "OUTBOX_PUBLISH_ERROR",
		Message:    "failed to publish outbox entry",
		HTTPStatus: http.StatusInternalServerError,
	}

	// ErrOutboxAtomicityUnsupported is returned by a Repository
	// implementation that cannot honor the persistWithEvent atomicity
	// contract: such an implementation must refuse the
	// write rather than silently risk a torn commit.
	ErrOutboxAtomicityUnsupported = &Error{
		Code:       "OUTBOX_ATOMICITY_UNSUPPORTED",
		Message:    "repository cannot atomically persist payment and event",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// Payment-specific resource errors
var (
	ErrPaymentNotFound = &Error{
		Code:       "PAYMENT_NOT_FOUND",
		Message:    "payment not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrIdempotencyKeyExists = &Error{
		Code:       "IDEMPOTENCY_KEY_EXISTS",
		Message:    "a payment already exists for this idempotency key",
		HTTPStatus: http.StatusConflict,
	}

	ErrNoGatewayAvailable = &Error{
		Code:       "NO_GATEWAY_AVAILABLE",
		Message:    "no payment gateway is registered",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
