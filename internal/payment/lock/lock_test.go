package lock

import (
	"context"
	"testing"
	"time"
)

func TestMemoryManager_AcquireRelease(t *testing.T) {
	m := New(time.Hour)
	defer m.Stop()
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "payment:process:p1", "owner-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v, want true, nil", ok, err)
	}

	ok, err = m.Acquire(ctx, "payment:process:p1", "owner-b", time.Minute)
	if err != nil || ok {
		t.Fatalf("second acquire by different owner = %v, %v, want false, nil", ok, err)
	}

	ok, err = m.Acquire(ctx, "payment:process:p1", "owner-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("re-acquire by same owner = %v, %v, want true, nil", ok, err)
	}

	released, err := m.Release(ctx, "payment:process:p1", "owner-b")
	if err != nil || released {
		t.Fatalf("release by wrong owner = %v, %v, want false, nil", released, err)
	}

	released, err = m.Release(ctx, "payment:process:p1", "owner-a")
	if err != nil || !released {
		t.Fatalf("release by owner = %v, %v, want true, nil", released, err)
	}

	locked, err := m.IsLocked(ctx, "payment:process:p1")
	if err != nil || locked {
		t.Fatalf("IsLocked after release = %v, %v, want false, nil", locked, err)
	}
}

func TestMemoryManager_ExpiryReclaimedLazily(t *testing.T) {
	m := New(time.Hour)
	defer m.Stop()
	ctx := context.Background()

	if _, err := m.Acquire(ctx, "k", "owner-a", time.Millisecond); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	ok, err := m.Acquire(ctx, "k", "owner-b", time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire after expiry = %v, %v, want true, nil", ok, err)
	}
}

func TestWithLock_TimesOutWhenHeld(t *testing.T) {
	m := New(time.Hour)
	defer m.Stop()
	ctx := context.Background()

	if _, err := m.Acquire(ctx, "k", "holder", time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	err := WithLock(ctx, m, "k", "waiter", time.Minute, 20*time.Millisecond, 5*time.Millisecond, func(ctx context.Context) error {
		t.Fatal("fn should not run while lock is held")
		return nil
	})
	if err == nil {
		t.Fatal("WithLock = nil, want LockTimeout")
	}
}

func TestWithLock_RunsAndReleases(t *testing.T) {
	m := New(time.Hour)
	defer m.Stop()
	ctx := context.Background()

	ran := false
	err := WithLock(ctx, m, "k", "owner", time.Minute, time.Second, 5*time.Millisecond, func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock = %v, want nil", err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}

	locked, _ := m.IsLocked(ctx, "k")
	if locked {
		t.Fatal("lock was not released after WithLock returned")
	}
}
