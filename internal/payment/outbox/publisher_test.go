package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
)

type fakeBus struct {
	mu        sync.Mutex
	failNext  int
	published []string
}

func (b *fakeBus) Publish(_ context.Context, event domain.PaymentEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext > 0 {
		b.failNext--
		return errors.New("bus unavailable")
	}
	b.published = append(b.published, event.EventID)
	return nil
}

func (b *fakeBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

func newEvent(id string) domain.PaymentEvent {
	return domain.PaymentEvent{EventID: id, AggregateID: "agg-1", EventType: domain.EventPaymentInitiated, Version: 1, Timestamp: time.Now()}
}

func TestPublisher_DeliversEventuallyOnTransientFailure(t *testing.T) {
	store := NewMemoryStore()
	event := newEvent("ev-1")
	if err := store.Save(context.Background(), NewEntry(event)); err != nil {
		t.Fatalf("save: %v", err)
	}

	bus := &fakeBus{failNext: 2}
	pub := NewPublisher(store, bus, PublisherConfig{
		PollInterval:   5 * time.Millisecond,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  10 * time.Millisecond,
		MaxRetries:     5,
	})

	pub.Start(context.Background())
	defer pub.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e, ok := store.Get("ev-1"); ok && e.Status == Published {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("event was never marked PUBLISHED")
}

func TestPublisher_PermanentlyFailsAfterMaxRetries(t *testing.T) {
	store := NewMemoryStore()
	event := newEvent("ev-2")
	if err := store.Save(context.Background(), NewEntry(event)); err != nil {
		t.Fatalf("save: %v", err)
	}

	bus := &fakeBus{failNext: 1000}
	pub := NewPublisher(store, bus, PublisherConfig{
		PollInterval:   2 * time.Millisecond,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  2 * time.Millisecond,
		MaxRetries:     2,
	})

	pub.Start(context.Background())
	defer pub.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e, ok := store.Get("ev-2"); ok && e.Status == Failed {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("event was never marked FAILED after exhausting retries")
}

func TestPublisher_StartStopIdempotent(t *testing.T) {
	store := NewMemoryStore()
	bus := &fakeBus{}
	pub := NewPublisher(store, bus, PublisherConfig{PollInterval: time.Millisecond})

	pub.Start(context.Background())
	pub.Start(context.Background()) // no-op
	pub.Stop()
	pub.Stop() // no-op
}

func TestMemoryStore_MarkProcessingIsAtomicTestAndSet(t *testing.T) {
	store := NewMemoryStore()
	event := newEvent("ev-3")
	_ = store.Save(context.Background(), NewEntry(event))

	first, err := store.MarkProcessing(context.Background(), "ev-3")
	if err != nil || !first {
		t.Fatalf("first MarkProcessing = %v, %v, want true, nil", first, err)
	}
	second, err := store.MarkProcessing(context.Background(), "ev-3")
	if err != nil || second {
		t.Fatalf("second MarkProcessing = %v, %v, want false, nil", second, err)
	}
}
