package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	orcherrors "github.com/bugielektrik/orchestra-pay/pkg/errors"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 5, OpenTimeout: time.Hour})

	failing := errors.New("boom")
	for i := 0; i < 5; i++ {
		_ = b.Execute(func() error { return failing })
	}

	if got := b.State(); got != Open {
		t.Fatalf("state after 5 failures = %s, want OPEN", got)
	}

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if called {
		t.Fatal("gateway function was invoked while breaker is OPEN")
	}
	if !orcherrors.Is(err, orcherrors.ErrCircuitOpen) {
		t.Fatalf("err = %v, want CircuitOpen", err)
	}
}

func TestBreaker_HalfOpenAfterTimeout_ClosesAfterSuccesses(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 2, OpenTimeout: 10 * time.Millisecond, SuccessThreshold: 3})

	failing := errors.New("boom")
	_ = b.Execute(func() error { return failing })
	_ = b.Execute(func() error { return failing })
	if got := b.State(); got != Open {
		t.Fatalf("state = %s, want OPEN", got)
	}

	time.Sleep(15 * time.Millisecond)
	if got := b.State(); got != HalfOpen {
		t.Fatalf("state after openTimeout = %s, want HALF_OPEN", got)
	}

	for i := 0; i < 3; i++ {
		err := b.Execute(func() error { return nil })
		if err != nil {
			t.Fatalf("probe %d failed: %v", i, err)
		}
	}

	if got := b.State(); got != Closed {
		t.Fatalf("state after successThreshold successes = %s, want CLOSED", got)
	}
}

func TestBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	_ = b.Execute(func() error { return errors.New("boom") })
	time.Sleep(15 * time.Millisecond)
	if got := b.State(); got != HalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN", got)
	}

	_ = b.Execute(func() error { return errors.New("still broken") })
	if got := b.State(); got != Open {
		t.Fatalf("state after HALF_OPEN failure = %s, want OPEN", got)
	}
}

func TestBreaker_HealthScoreRange(t *testing.T) {
	b := NewBreaker(Config{})
	for i := 0; i < 20; i++ {
		_ = b.Execute(func() error { return nil })
	}
	score := b.HealthScore()
	if score < 0 || score > 1 {
		t.Fatalf("health score %f out of [0,1]", score)
	}
	if score < 0.8 {
		t.Fatalf("health score %f too low after all successes", score)
	}
}
