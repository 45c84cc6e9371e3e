// Package memory is the required in-memory Repository implementation.
// It is the demo host's persistence layer and honors the
// PersistWithEvent atomicity contract by holding a single process-wide
// mutex across both the payment write and the outbox write.
package memory

import (
	"context"
	"sync"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/outbox"
	"github.com/bugielektrik/orchestra-pay/internal/payment/repository"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// Repository is the in-memory Repository implementation.
type Repository struct {
	mu sync.Mutex

	byID             map[string]domain.Payment
	byIdempotencyKey map[string]string // merchantId:key -> payment id
	byGatewayTxnID   map[string]string

	outboxStore outbox.Store
}

// New constructs an empty Repository. outboxStore is the Store
// PersistWithEvent writes alongside the payment row.
func New(outboxStore outbox.Store) *Repository {
	return &Repository{
		byID:             make(map[string]domain.Payment),
		byIdempotencyKey: make(map[string]string),
		byGatewayTxnID:   make(map[string]string),
		outboxStore:      outboxStore,
	}
}

func (r *Repository) FindByID(_ context.Context, id string) (domain.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	return p, ok, nil
}

func (r *Repository) FindByIdempotencyKey(_ context.Context, merchantID, idempotencyKey string) (domain.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byIdempotencyKey[merchantID+":"+idempotencyKey]
	if !ok {
		return domain.Payment{}, false, nil
	}
	p, ok := r.byID[id]
	return p, ok, nil
}

func (r *Repository) FindByGatewayTxnID(_ context.Context, txnID string) (domain.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byGatewayTxnID[txnID]
	if !ok {
		return domain.Payment{}, false, nil
	}
	p, ok := r.byID[id]
	return p, ok, nil
}

func (r *Repository) Save(_ context.Context, payment domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := payment.MerchantID + ":" + payment.IdempotencyKey
	if _, exists := r.byIdempotencyKey[key]; exists {
		return errors.ErrIdempotencyKeyExists.WithDetails("idempotencyKey", payment.IdempotencyKey)
	}

	r.index(payment)
	return nil
}

func (r *Repository) UpdateWithVersion(_ context.Context, payment domain.Payment, expectedVersion int) (repository.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[payment.ID]
	if !ok {
		return repository.UpdateResult{}, errors.ErrPaymentNotFound.WithDetails("id", payment.ID)
	}
	if current.Version != expectedVersion {
		return repository.UpdateResult{Conflict: true}, nil
	}

	r.index(payment)
	return repository.UpdateResult{Success: true, NewVersion: payment.Version}, nil
}

func (r *Repository) PersistWithEvent(ctx context.Context, payment domain.Payment, event domain.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[payment.ID]; ok && existing.Version >= payment.Version {
		return errors.ErrConcurrentModification.WithDetails("id", payment.ID)
	}

	if err := r.outboxStore.Save(ctx, outbox.NewEntry(event)); err != nil {
		return err
	}
	r.index(payment)
	return nil
}

func (r *Repository) index(payment domain.Payment) {
	r.byID[payment.ID] = payment
	r.byIdempotencyKey[payment.MerchantID+":"+payment.IdempotencyKey] = payment.ID
	if payment.GatewayTransactionID != "" {
		r.byGatewayTxnID[payment.GatewayTransactionID] = payment.ID
	}
}
