// Package idempotency implements request fingerprinting, in-flight
// coordination, and cached-response replay so a caller retrying the
// same logical operation never triggers it twice.
package idempotency

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bugielektrik/orchestra-pay/internal/payment/lock"
	"github.com/bugielektrik/orchestra-pay/pkg/crypto"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// RecordState is the idempotency record's own lifecycle, independent
// of the payment state machine.
type RecordState string

const (
	RecordProcessing RecordState = "PROCESSING"
	RecordCompleted  RecordState = "COMPLETED"
	RecordFailed     RecordState = "FAILED"
)

// Record is the de-duplication row keyed by a scoped idempotency key.
type Record struct {
	Key             string
	Fingerprint     string
	State           RecordState
	CachedResponse  any
	CachedErrorCode string
	CachedErrorMsg  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// Store persists Records. Expired records are treated as absent by
// the engine regardless of what Get returns, so implementations are
// not required to actively evict them.
type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Put(ctx context.Context, record Record) error
}

// Config holds the engine's tunables.
type Config struct {
	TTL           time.Duration
	LockTimeout   time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = 10 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 100 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 50
	}
	return c
}

// Engine coordinates idempotent execution of fn under a scoped key.
type Engine struct {
	store Store
	locks lock.Manager
	cfg   Config
}

// New constructs an Engine.
func New(store Store, locks lock.Manager, cfg Config) *Engine {
	return &Engine{store: store, locks: locks, cfg: cfg.withDefaults()}
}

// Fingerprint returns the SHA-256 hex digest of body's canonical JSON
// (keys sorted at every object level).
func Fingerprint(body any) (string, error) {
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", err
	}
	return crypto.SHA256Hash(string(canonical)), nil
}

// ScopedKey builds the merchantId:operation:clientKey key format.
func ScopedKey(merchantID, operation, clientKey string) string {
	return merchantID + ":" + operation + ":" + clientKey
}

// ExecuteIdempotent runs the algorithm: acquire the lock, branch on
// the record's existence/state, run fn at most once, cache its
// outcome, and always release the lock.
func (e *Engine) ExecuteIdempotent(ctx context.Context, key string, body any, fn func(ctx context.Context) (any, error)) (any, error) {
	fingerprint, err := Fingerprint(body)
	if err != nil {
		return nil, err
	}

	var result any
	var resultErr error

	owner := uuid.NewString()
	lockErr := lock.WithLock(ctx, e.locks, "idempotency:"+key, owner, e.cfg.LockTimeout, e.cfg.LockTimeout, e.cfg.RetryInterval, func(ctx context.Context) error {
		record, found, err := e.store.Get(ctx, key)
		if err != nil {
			resultErr = err
			return nil
		}
		if found && e.isExpired(record) {
			found = false
		}

		if !found {
			result, resultErr = e.runAndCache(ctx, key, fingerprint, fn)
			return nil
		}

		if record.Fingerprint != fingerprint {
			resultErr = errors.ErrFingerprintMismatch.WithDetails("key", key)
			return nil
		}

		switch record.State {
		case RecordCompleted:
			result = record.CachedResponse
		case RecordFailed:
			resultErr = &errors.Error{Code: record.CachedErrorCode, Message: record.CachedErrorMsg, HTTPStatus: 502}
		case RecordProcessing:
			// released below; poll outside the lock
		}
		return nil
	})
	if lockErr != nil {
		if errorsIsLockTimeout(lockErr) {
			return nil, errors.ErrIdempotencyLock.WithDetails("key", key).Wrap(lockErr)
		}
		return nil, lockErr
	}
	if resultErr != nil {
		return nil, resultErr
	}
	if result != nil {
		return result, nil
	}

	// Record existed in PROCESSING when we read it: poll for terminal
	// state outside the lock we just released, per the algorithm.
	return e.pollForTerminal(ctx, key, fingerprint)
}

func (e *Engine) runAndCache(ctx context.Context, key, fingerprint string, fn func(ctx context.Context) (any, error)) (any, error) {
	now := time.Now()
	if err := e.store.Put(ctx, Record{
		Key: key, Fingerprint: fingerprint, State: RecordProcessing,
		CreatedAt: now, UpdatedAt: now, ExpiresAt: now.Add(e.cfg.TTL),
	}); err != nil {
		return nil, err
	}

	result, err := fn(ctx)

	updated := time.Now()
	if err != nil {
		var code, msg string
		if de, ok := err.(*errors.Error); ok {
			code, msg = de.Code, de.Message
		} else {
			code, msg = "INTERNAL_ERROR", err.Error()
		}
		_ = e.store.Put(ctx, Record{
			Key: key, Fingerprint: fingerprint, State: RecordFailed,
			CachedErrorCode: code, CachedErrorMsg: msg,
			CreatedAt: now, UpdatedAt: updated, ExpiresAt: now.Add(e.cfg.TTL),
		})
		return nil, err
	}

	_ = e.store.Put(ctx, Record{
		Key: key, Fingerprint: fingerprint, State: RecordCompleted,
		CachedResponse: result,
		CreatedAt:      now, UpdatedAt: updated, ExpiresAt: now.Add(e.cfg.TTL),
	})
	return result, nil
}

func (e *Engine) pollForTerminal(ctx context.Context, key, fingerprint string) (any, error) {
	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		record, found, err := e.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if found && record.Fingerprint == fingerprint {
			switch record.State {
			case RecordCompleted:
				return record.CachedResponse, nil
			case RecordFailed:
				return nil, &errors.Error{Code: record.CachedErrorCode, Message: record.CachedErrorMsg, HTTPStatus: 502}
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.cfg.RetryInterval):
		}
	}
	return nil, errors.ErrIdempotencyTimeout.WithDetails("key", key)
}

func (e *Engine) isExpired(r Record) bool {
	return !r.ExpiresAt.IsZero() && time.Now().After(r.ExpiresAt)
}

func errorsIsLockTimeout(err error) bool {
	return errors.Is(err, errors.ErrLockTimeout)
}

// canonicalJSON serializes v with object keys sorted, so that two
// structurally-identical requests with different field ordering hash
// to the same fingerprint.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, _ := json.Marshal(k)
			buf = append(buf, kb...)
			buf = append(buf, ':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	case []any:
		buf := []byte{'['}
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, ib...)
		}
		buf = append(buf, ']')
		return buf, nil
	default:
		return json.Marshal(val)
	}
}
