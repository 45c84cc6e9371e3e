package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bugielektrik/orchestra-pay/internal/payment/lock"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

type createBody struct {
	Amount float64 `json:"amount"`
	Key    string  `json:"key"`
}

func newEngine() *Engine {
	store := NewMemoryStore()
	locks := lock.New(time.Hour)
	return New(store, locks, Config{RetryInterval: 5 * time.Millisecond})
}

func TestExecuteIdempotent_ConcurrentSameBodyRunsOnce(t *testing.T) {
	engine := newEngine()
	body := createBody{Amount: 100, Key: "k1"}

	var calls int32
	var mu sync.Mutex
	fn := func(ctx context.Context) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		return "payment-1", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := engine.ExecuteIdempotent(context.Background(), "m1:create:k1", body, fn)
			if err != nil {
				t.Errorf("ExecuteIdempotent: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	mu.Lock()
	gotCalls := calls
	mu.Unlock()
	if gotCalls != 1 {
		t.Fatalf("fn was called %d times, want 1", gotCalls)
	}
	for _, r := range results {
		if r != "payment-1" {
			t.Fatalf("result = %v, want payment-1", r)
		}
	}
}

func TestExecuteIdempotent_FingerprintMismatchRejected(t *testing.T) {
	engine := newEngine()
	fn := func(ctx context.Context) (any, error) { return "payment-1", nil }

	if _, err := engine.ExecuteIdempotent(context.Background(), "m1:create:k3", createBody{Amount: 100, Key: "k3"}, fn); err != nil {
		t.Fatalf("first call: %v", err)
	}

	_, err := engine.ExecuteIdempotent(context.Background(), "m1:create:k3", createBody{Amount: 200, Key: "k3"}, fn)
	if !errors.Is(err, errors.ErrFingerprintMismatch) {
		t.Fatalf("second call with different body = %v, want FingerprintMismatch", err)
	}
}

func TestExecuteIdempotent_CompletedIsReplayed(t *testing.T) {
	engine := newEngine()
	body := createBody{Amount: 50, Key: "k5"}
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return "payment-5", nil
	}

	first, err := engine.ExecuteIdempotent(context.Background(), "m1:create:k5", body, fn)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := engine.ExecuteIdempotent(context.Background(), "m1:create:k5", body, fn)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Fatalf("replayed result %v != original %v", second, first)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
}
