package idempotency

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is the required in-memory Store implementation. Records
// are kept in a go-cache instance keyed by their scoped key, each
// entry's own TTL driven by the record's ExpiresAt so a record expires
// out of the store at the same instant the engine would otherwise
// start treating it as absent.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore constructs an empty MemoryStore. The janitor sweeps
// expired entries every minute; Get additionally double-checks
// ExpiresAt itself, so a slightly stale sweep never serves an expired
// record.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return Record{}, false, nil
	}
	return v.(Record), true, nil
}

func (s *MemoryStore) Put(_ context.Context, record Record) error {
	ttl := cache.NoExpiration
	if !record.ExpiresAt.IsZero() {
		if d := time.Until(record.ExpiresAt); d > 0 {
			ttl = d
		} else {
			ttl = time.Nanosecond
		}
	}
	s.cache.Set(record.Key, record, ttl)
	return nil
}
