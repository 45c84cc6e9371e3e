package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/internal/payment/circuitbreaker"
	"github.com/bugielektrik/orchestra-pay/internal/payment/coordinator"
	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/gateway"
	"github.com/bugielektrik/orchestra-pay/internal/payment/idempotency"
	paymentlock "github.com/bugielektrik/orchestra-pay/internal/payment/lock"
	"github.com/bugielektrik/orchestra-pay/internal/payment/metrics"
	"github.com/bugielektrik/orchestra-pay/internal/payment/outbox"
	"github.com/bugielektrik/orchestra-pay/internal/payment/outbox/busrabbitmq"
	"github.com/bugielektrik/orchestra-pay/internal/payment/repository/memory"
	"github.com/bugielektrik/orchestra-pay/internal/payment/router"
	paymenthttp "github.com/bugielektrik/orchestra-pay/internal/payment/transport/http"
	"github.com/bugielektrik/orchestra-pay/pkg/broker/rabbitmq"
	"github.com/bugielektrik/orchestra-pay/pkg/config"
	pkglog "github.com/bugielektrik/orchestra-pay/pkg/log"
	pkgmiddleware "github.com/bugielektrik/orchestra-pay/pkg/middleware"
	"github.com/bugielektrik/orchestra-pay/pkg/server"
	"github.com/bugielektrik/orchestra-pay/pkg/server/response"
	"github.com/bugielektrik/orchestra-pay/pkg/store"
)

// This is the demo host for the payment reliability core. Boot order
// mirrors every other host built on this stack: config, logger, the
// reliability core's own components, the outbox publisher, then the
// HTTP server.
func main() {
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))

	logger := pkglog.GetLogger()
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("environment", cfg.App.Environment))

	outboxStore := outbox.NewMemoryStore()
	repo := memory.New(outboxStore)

	locks, lockHealth := newLockManager(cfg, logger)

	bus, busHealth, busCleanup := newEventBus(cfg, logger)
	defer busCleanup()

	publisher := outbox.NewPublisher(outboxStore, bus, outbox.PublisherConfig{
		PollInterval:   cfg.Outbox.PollInterval,
		BatchSize:      cfg.Outbox.BatchSize,
		MaxRetries:     cfg.Outbox.MaxRetries,
		RetryBaseDelay: cfg.Outbox.RetryBaseDelay,
		RetryMaxDelay:  cfg.Outbox.RetryMaxDelay,
		EnableCleanup:  cfg.Outbox.EnableCleanup,
		CleanupAge:     cfg.Outbox.CleanupAge,
	})

	bgCtx, cancelBg := context.WithCancel(context.Background())
	publisher.Start(bgCtx)
	defer publisher.Stop()

	collector := metrics.NewCollector(1000)
	stopSnapshots := collector.StartSnapshotTicker()
	defer stopSnapshots()

	breakers := circuitbreaker.NewRegistry(circuitbreaker.Config{
		FailureThreshold:     cfg.CircuitBreaker.FailureThreshold,
		FailureRateThreshold: cfg.CircuitBreaker.FailureRateThreshold,
		SuccessThreshold:     cfg.CircuitBreaker.SuccessThreshold,
		OpenTimeout:          cfg.CircuitBreaker.OpenTimeout,
		HalfOpenTimeout:      cfg.CircuitBreaker.HalfOpenTimeout,
		HalfOpenMaxAttempts:  cfg.CircuitBreaker.HalfOpenMaxAttempts,
		MinHealthScore:       cfg.CircuitBreaker.MinHealthScore,
	})

	gateways := []gateway.Gateway{
		gateway.NewMockGateway("primary"),
		gateway.NewMockGateway("secondary"),
	}
	gatewayNames := make([]string, len(gateways))
	for i, g := range gateways {
		gatewayNames[i] = g.Name()
	}

	rt := router.New(gatewayNames, nil, router.ScoringWeights{
		SuccessRate: cfg.Routing.ScoringWeights.SuccessRate,
		Latency:     cfg.Routing.ScoringWeights.Latency,
		Cost:        cfg.Routing.ScoringWeights.Cost,
	}, collector)

	idempotencyEngine := idempotency.New(idempotency.NewMemoryStore(), locks, idempotency.Config{
		TTL:           cfg.Idempotency.TTL,
		LockTimeout:   cfg.Idempotency.LockTimeout,
		RetryInterval: cfg.Idempotency.RetryInterval,
		MaxRetries:    cfg.Idempotency.MaxRetries,
	})

	coordOpts := []coordinator.Option{
		coordinator.WithRepository(repo),
		coordinator.WithLockManager(locks),
		coordinator.WithIdempotencyEngine(idempotencyEngine),
		coordinator.WithCircuitBreakers(breakers),
		coordinator.WithMetrics(collector),
		coordinator.WithRouter(rt),
		coordinator.WithOutboxPublisher(publisher),
	}
	for _, g := range gateways {
		coordOpts = append(coordOpts, coordinator.WithGateway(g))
	}
	coordOpts = append(coordOpts,
		coordinator.WithRetryPolicy(coordinator.RetryConfig{
			MaxRetries:        cfg.Retry.MaxRetries,
			InitialDelay:      cfg.Retry.InitialDelay,
			MaxDelay:          cfg.Retry.MaxDelay,
			BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		}),
	)

	coord, err := coordinator.New(coordOpts...)
	if err != nil {
		log.Fatalf("failed to build coordinator: %v", err)
	}

	handler := paymenthttp.New(coord, repo, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(pkgmiddleware.RequestLogger(logger))
	r.Use(pkgmiddleware.ErrorHandler(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", response.Health(lockHealth, busHealth))
	r.Route("/api/v1", handler.Routes)

	httpSrv, err := server.New(server.WithHTTPServer(r, strconv.Itoa(cfg.Server.Port)))
	if err != nil {
		log.Fatalf("failed to build http server: %v", err)
	}

	if err := httpSrv.Run(logger); err != nil {
		log.Fatalf("failed to start http server: %v", err)
	}
	logger.Info("server started", zap.Int("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancelBg()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Stop(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newLockManager builds a Redis-backed lock manager when enabled,
// falling back to the in-memory one for the demo/dev path.
func newLockManager(cfg *config.Config, logger *zap.Logger) (paymentlock.Manager, response.HealthChecker) {
	if !cfg.Redis.Enabled {
		m := paymentlock.New(time.Minute)
		return m, func() (string, string) { return "lock_manager", "up (memory)" }
	}

	redisStore, err := store.NewRedis(cfg.Redis.URL)
	if err != nil {
		logger.Warn("failed to connect to redis, falling back to memory lock manager", zap.Error(err))
		m := paymentlock.New(time.Minute)
		return m, func() (string, string) { return "lock_manager", "down (redis unreachable, using memory)" }
	}

	m := paymentlock.NewRedisManager(redisStore.Connection)
	checker := func() (string, string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisStore.Connection.Ping(ctx).Err(); err != nil {
			return "lock_manager", "down"
		}
		return "lock_manager", "up (redis)"
	}
	return m, checker
}

// newEventBus builds a RabbitMQ-backed outbox event bus when enabled,
// falling back to a no-op bus that logs what it would have published.
func newEventBus(cfg *config.Config, logger *zap.Logger) (outbox.EventBus, response.HealthChecker, func()) {
	if !cfg.RabbitMQ.Enabled {
		return noopBus{log: logger}, func() (string, string) { return "event_bus", "up (noop)" }, func() {}
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Warn("failed to connect to rabbitmq, falling back to noop bus", zap.Error(err))
		return noopBus{log: logger}, func() (string, string) { return "event_bus", "down (rabbitmq unreachable)" }, func() {}
	}

	bus, err := busrabbitmq.New(conn, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Warn("failed to declare rabbitmq exchange, falling back to noop bus", zap.Error(err))
		conn.Close()
		return noopBus{log: logger}, func() (string, string) { return "event_bus", "down (exchange declare failed)" }, func() {}
	}

	checker := func() (string, string) {
		if conn.Conn.IsClosed() {
			return "event_bus", "down"
		}
		return "event_bus", "up (rabbitmq)"
	}
	return bus, checker, func() { conn.Close() }
}

type noopBus struct {
	log *zap.Logger
}

func (b noopBus) Publish(_ context.Context, event domain.PaymentEvent) error {
	b.log.Debug("outbox event published (noop bus)", zap.String("eventId", event.EventID), zap.String("eventType", string(event.EventType)))
	return nil
}
