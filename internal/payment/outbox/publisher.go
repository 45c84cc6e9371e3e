package outbox

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/pkg/log"
)

// PublisherConfig holds the publisher's tunables.
type PublisherConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	EnableCleanup  bool
	CleanupAge     time.Duration
}

func (c PublisherConfig) withDefaults() PublisherConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = time.Minute
	}
	if c.CleanupAge <= 0 {
		c.CleanupAge = 7 * 24 * time.Hour
	}
	return c
}

// Publisher is the single long-lived background worker per process
// that drains Store and delivers entries to EventBus. Start/Stop are
// both idempotent.
type Publisher struct {
	store Store
	bus   EventBus
	cfg   PublisherConfig
	log   *zap.Logger

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastSweep time.Time
}

// NewPublisher constructs a Publisher over store and bus.
func NewPublisher(store Store, bus EventBus, cfg PublisherConfig) *Publisher {
	return &Publisher{
		store: store,
		bus:   bus,
		cfg:   cfg.withDefaults(),
		log:   log.GetLogger(),
	}
}

// Start launches the poll loop in a goroutine. Calling Start on an
// already-running Publisher is a no-op.
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(runCtx)
}

// Stop cancels the loop and blocks until the in-flight tick finishes.
// Idempotent.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.running = false
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Publisher) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one poll iteration: fetch a batch, publish each, sweep
// expired PUBLISHED rows at most once per hour.
func (p *Publisher) tick(ctx context.Context) {
	entries, err := p.store.GetPending(ctx, p.cfg.BatchSize)
	if err != nil {
		p.log.Error("outbox: failed to fetch pending entries", zap.Error(err))
		return
	}

	for _, entry := range entries {
		p.publishOne(ctx, entry)
	}

	if p.cfg.EnableCleanup && time.Since(p.lastSweep) >= time.Hour {
		p.lastSweep = time.Now()
		if n, err := p.store.DeletePublished(ctx, time.Now().Add(-p.cfg.CleanupAge)); err != nil {
			p.log.Error("outbox: cleanup sweep failed", zap.Error(err))
		} else if n > 0 {
			p.log.Info("outbox: cleanup sweep removed published entries", zap.Int("count", n))
		}
	}
}

func (p *Publisher) publishOne(ctx context.Context, entry Entry) {
	claimed, err := p.store.MarkProcessing(ctx, entry.ID)
	if err != nil {
		p.log.Error("outbox: failed to mark entry processing", zap.String("eventId", entry.ID), zap.Error(err))
		return
	}
	if !claimed {
		return // another publisher instance already claimed it
	}

	if err := p.bus.Publish(ctx, entry.Payload); err != nil {
		p.handlePublishFailure(ctx, entry, err)
		return
	}

	if err := p.store.MarkPublished(ctx, entry.ID); err != nil {
		p.log.Error("outbox: failed to mark entry published", zap.String("eventId", entry.ID), zap.Error(err))
	}
}

func (p *Publisher) handlePublishFailure(ctx context.Context, entry Entry, publishErr error) {
	attempts := entry.Attempts + 1
	if attempts >= p.cfg.MaxRetries {
		if err := p.store.MarkFailed(ctx, entry.ID, publishErr.Error(), nil); err != nil {
			p.log.Error("outbox: failed to mark entry failed", zap.String("eventId", entry.ID), zap.Error(err))
		}
		p.log.Warn("outbox: entry permanently failed", zap.String("eventId", entry.ID), zap.Int("attempts", attempts))
		return
	}

	delay := backoff(p.cfg.RetryBaseDelay, p.cfg.RetryMaxDelay, attempts)
	nextRetryAt := time.Now().Add(delay)
	if err := p.store.MarkFailed(ctx, entry.ID, publishErr.Error(), &nextRetryAt); err != nil {
		p.log.Error("outbox: failed to schedule retry", zap.String("eventId", entry.ID), zap.Error(err))
	}
}

// backoff computes base*2^attempt capped at max, with full jitter.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
