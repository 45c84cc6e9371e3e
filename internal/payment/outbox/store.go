package outbox

import (
	"context"
	"time"
)

// Store is the durable outbox queue. save must be callable from
// within the same storage transaction as a repository write — see
// repository.Repository.PersistWithEvent — so implementations backed
// by a store that cannot honor that atomicity must refuse the write
// (ErrOutboxAtomicityUnsupported) rather than risk a torn commit.
type Store interface {
	// Save persists entry. Implementations used as the atomicity
	// boundary for PersistWithEvent accept an already-open transaction
	// handle via ctx; the in-memory Store ignores this distinction.
	Save(ctx context.Context, entry Entry) error
	// GetPending returns up to limit entries with status PENDING whose
	// NextRetryAt is unset or <= now, ordered by CreatedAt ascending.
	GetPending(ctx context.Context, limit int) ([]Entry, error)
	// MarkProcessing is an atomic test-and-set: it only succeeds if the
	// entry is currently PENDING, so two publishers racing on the same
	// store never both claim the same entry.
	MarkProcessing(ctx context.Context, id string) (bool, error)
	MarkPublished(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string, nextRetryAt *time.Time) error
	// DeletePublished removes PUBLISHED entries older than olderThan
	// and returns how many were removed.
	DeletePublished(ctx context.Context, olderThan time.Time) (int, error)
}
