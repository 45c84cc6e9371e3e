// Package lock implements named mutual-exclusion leases used to
// serialize payment creation and processing per aggregate.
package lock

import (
	"context"
	"math/rand"
	"time"

	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// Manager is the narrow contract every lock implementation satisfies.
// The in-memory Manager below is the required implementation; a
// Redis-backed one is a drop-in replacement behind the same interface.
type Manager interface {
	// Acquire is non-blocking. It returns true if key was free, or
	// already held by owner (in which case its TTL is extended).
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release returns true only if owner currently holds key.
	Release(ctx context.Context, key, owner string) (bool, error)
	// Extend renews the TTL of a lease owner currently holds.
	Extend(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// IsLocked reports whether key is currently held by anyone.
	IsLocked(ctx context.Context, key string) (bool, error)
}

// WithLock polls Acquire until it succeeds or maxWait elapses, runs fn
// while holding the lease, and always releases it afterward — even if
// fn panics or ctx is cancelled mid-flight.
func WithLock(ctx context.Context, m Manager, key, owner string, ttl, maxWait, retryInterval time.Duration, fn func(ctx context.Context) error) error {
	deadline := time.Now().Add(maxWait)
	for {
		acquired, err := m.Acquire(ctx, key, owner, ttl)
		if err != nil {
			return err
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return errors.ErrLockTimeout.WithDetails("key", key).WithDetails("owner", owner)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(retryInterval)):
		}
	}

	defer func() {
		_, _ = m.Release(ctx, key, owner)
	}()

	return fn(ctx)
}

func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d/2 + time.Duration(rand.Int63n(int64(d)))
}
