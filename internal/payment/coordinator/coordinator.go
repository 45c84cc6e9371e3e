// Package coordinator wires the reliability core's components
// together and exposes the two public operations the rest of a
// payment service calls: CreatePayment and ProcessPayment.
package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/internal/payment/circuitbreaker"
	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/gateway"
	"github.com/bugielektrik/orchestra-pay/internal/payment/idempotency"
	"github.com/bugielektrik/orchestra-pay/internal/payment/lock"
	"github.com/bugielektrik/orchestra-pay/internal/payment/metrics"
	"github.com/bugielektrik/orchestra-pay/internal/payment/outbox"
	"github.com/bugielektrik/orchestra-pay/internal/payment/repository"
	"github.com/bugielektrik/orchestra-pay/internal/payment/router"
	"github.com/bugielektrik/orchestra-pay/pkg/logutil"
)

// retryPollInterval paces ProcessPayment's lock-acquire retry loop
// while waiting for a contended lock.
const retryPollInterval = 20 * time.Millisecond

// RetryConfig is the gateway-call retry policy.
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2
	}
	return c
}

// Coordinator orchestrates the reliability core for the create and
// process operations. Every dependency is injected at construction
// time; Coordinator stores no back-pointer into any of them.
type Coordinator struct {
	repo       repository.Repository
	locks      lock.Manager
	idempotent *idempotency.Engine
	breakers   *circuitbreaker.Registry
	routerImpl *router.Router
	metrics    *metrics.Collector
	gateways   map[string]gateway.Gateway
	gatewayOrder []string
	publisher  *outbox.Publisher
	retry      RetryConfig
	processLockTTL time.Duration
}

// Option configures a Coordinator being built by New.
type Option func(*Coordinator) error

// New takes a variable amount of Option functions and returns a new
// Coordinator. Each Option is applied in the order it is passed in.
func New(opts ...Option) (c *Coordinator, err error) {
	c = &Coordinator{
		gateways:       make(map[string]gateway.Gateway),
		processLockTTL: 120 * time.Second,
		retry:          RetryConfig{}.withDefaults(),
	}
	for _, opt := range opts {
		if err = opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithRepository sets the persistence layer.
func WithRepository(repo repository.Repository) Option {
	return func(c *Coordinator) error {
		c.repo = repo
		return nil
	}
}

// WithLockManager sets the named-lock implementation.
func WithLockManager(m lock.Manager) Option {
	return func(c *Coordinator) error {
		c.locks = m
		return nil
	}
}

// WithIdempotencyEngine sets the idempotency engine.
func WithIdempotencyEngine(e *idempotency.Engine) Option {
	return func(c *Coordinator) error {
		c.idempotent = e
		return nil
	}
}

// WithCircuitBreakers sets the per-gateway breaker registry.
func WithCircuitBreakers(r *circuitbreaker.Registry) Option {
	return func(c *Coordinator) error {
		c.breakers = r
		return nil
	}
}

// WithMetrics sets the shared gateway metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Coordinator) error {
		c.metrics = m
		return nil
	}
}

// WithRouter sets the router used when ProcessPaymentRequest does not
// force a gateway.
func WithRouter(r *router.Router) Option {
	return func(c *Coordinator) error {
		c.routerImpl = r
		return nil
	}
}

// WithGateway registers a Gateway by name, in the order gateways are
// registered — this order backs the router's fallback and
// tie-breaking rules.
func WithGateway(g gateway.Gateway) Option {
	return func(c *Coordinator) error {
		c.gateways[g.Name()] = g
		c.gatewayOrder = append(c.gatewayOrder, g.Name())
		return nil
	}
}

// WithOutboxPublisher sets the background outbox publisher. The
// coordinator does not start or stop it; the caller owns its lifecycle.
func WithOutboxPublisher(p *outbox.Publisher) Option {
	return func(c *Coordinator) error {
		c.publisher = p
		return nil
	}
}

// WithRetryPolicy overrides the default gateway-call retry policy.
func WithRetryPolicy(cfg RetryConfig) Option {
	return func(c *Coordinator) error {
		c.retry = cfg.withDefaults()
		return nil
	}
}

// WithProcessLockTTL overrides the default 120s TTL held during
// ProcessPayment.
func WithProcessLockTTL(ttl time.Duration) Option {
	return func(c *Coordinator) error {
		c.processLockTTL = ttl
		return nil
	}
}

func (c *Coordinator) availableGateways() []string {
	return c.breakers.Available(c.gatewayOrder)
}

// logger returns the request-scoped logger RequestLogger attached to
// ctx by the HTTP middleware, falling back to the process default when
// called outside a request, e.g. from a background retry.
func (c *Coordinator) logger(ctx context.Context) *zap.Logger {
	return logutil.FromContext(ctx)
}

// persistWithEvent checks payment's structural invariants before
// handing it and its event to the repository, so a bug in a
// transition helper surfaces here instead of as a corrupt row.
func (c *Coordinator) persistWithEvent(ctx context.Context, payment domain.Payment, event domain.PaymentEvent) error {
	if err := payment.CheckInvariants(); err != nil {
		return err
	}
	return c.repo.PersistWithEvent(ctx, payment, event)
}
