package lock

import (
	"context"
	"sync"
	"time"

	"github.com/bugielektrik/orchestra-pay/pkg/timeutil"
)

type lease struct {
	owner     string
	expiresAt time.Time
}

// MemoryManager is the required in-memory Manager implementation. A
// single mutex guards the lease map; expired leases are reclaimed
// lazily on access and by the periodic sweeper started by New.
type MemoryManager struct {
	mu     sync.Mutex
	leases map[string]lease

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// New constructs a MemoryManager and starts its sweeper goroutine.
// Callers must call Stop when the manager's owning process shuts down.
func New(sweepInterval time.Duration) *MemoryManager {
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	m := &MemoryManager{
		leases:        make(map[string]lease),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Stop terminates the sweeper goroutine. Idempotent.
func (m *MemoryManager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MemoryManager) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	l, ok := m.leases[key]
	if ok && !timeutil.IsExpired(l.expiresAt) && l.owner != owner {
		return false, nil
	}
	m.leases[key] = lease{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *MemoryManager) Release(_ context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leases[key]
	if !ok || l.owner != owner {
		return false, nil
	}
	delete(m.leases, key)
	return true, nil
}

func (m *MemoryManager) Extend(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	l, ok := m.leases[key]
	if !ok || l.owner != owner || timeutil.IsExpired(l.expiresAt) {
		return false, nil
	}
	l.expiresAt = now.Add(ttl)
	m.leases[key] = l
	return true, nil
}

func (m *MemoryManager) IsLocked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leases[key]
	return ok && !timeutil.IsExpired(l.expiresAt), nil
}

func (m *MemoryManager) sweep() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.reclaimExpired()
		}
	}
}

func (m *MemoryManager) reclaimExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, l := range m.leases {
		if timeutil.IsExpired(l.expiresAt) {
			delete(m.leases, key)
		}
	}
}
