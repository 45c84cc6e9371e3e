// Package repository defines the persistence abstraction the
// coordinator drives. persistWithEvent is the one true atomicity
// boundary: every mutation the coordinator makes to a Payment is
// accompanied by exactly one PaymentEvent written in the same
// transaction.
package repository

import (
	"context"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
)

// UpdateResult reports the outcome of a version-guarded update.
type UpdateResult struct {
	Success    bool
	NewVersion int
	Conflict   bool
}

// Repository is the persistence contract.
type Repository interface {
	FindByID(ctx context.Context, id string) (domain.Payment, bool, error)
	FindByIdempotencyKey(ctx context.Context, merchantID, idempotencyKey string) (domain.Payment, bool, error)
	FindByGatewayTxnID(ctx context.Context, txnID string) (domain.Payment, bool, error)
	// Save inserts a new payment; fails with ErrIdempotencyKeyExists on
	// a duplicate idempotency key for the same merchant.
	Save(ctx context.Context, payment domain.Payment) error
	// UpdateWithVersion performs `UPDATE ... WHERE id=? AND version=?`.
	// Zero rows affected is reported as UpdateResult.Conflict, not an error.
	UpdateWithVersion(ctx context.Context, payment domain.Payment, expectedVersion int) (UpdateResult, error)
	// PersistWithEvent inserts/updates the payment row and inserts the
	// outbox row in one storage transaction, rolling back on any
	// failure. Implementations that cannot guarantee this atomicity
	// MUST return ErrOutboxAtomicityUnsupported instead of silently
	// risking a torn commit.
	PersistWithEvent(ctx context.Context, payment domain.Payment, event domain.PaymentEvent) error
}
