package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugielektrik/orchestra-pay/internal/payment/circuitbreaker"
	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/gateway"
	"github.com/bugielektrik/orchestra-pay/internal/payment/idempotency"
	"github.com/bugielektrik/orchestra-pay/internal/payment/lock"
	"github.com/bugielektrik/orchestra-pay/internal/payment/metrics"
	"github.com/bugielektrik/orchestra-pay/internal/payment/outbox"
	"github.com/bugielektrik/orchestra-pay/internal/payment/repository/memory"
	"github.com/bugielektrik/orchestra-pay/internal/payment/router"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

func newTestCoordinator(t *testing.T, gateways ...gateway.Gateway) (*Coordinator, *memory.Repository) {
	t.Helper()

	outboxStore := outbox.NewMemoryStore()
	repo := memory.New(outboxStore)
	locks := lock.New(time.Hour)
	collector := metrics.NewCollector(100)
	breakers := circuitbreaker.NewRegistry(circuitbreaker.Config{})

	gatewayNames := make([]string, len(gateways))
	for i, g := range gateways {
		gatewayNames[i] = g.Name()
	}
	rt := router.New(gatewayNames, nil, router.DefaultScoringWeights(), collector)

	idempotencyEngine := idempotency.New(idempotency.NewMemoryStore(), locks, idempotency.Config{RetryInterval: 5 * time.Millisecond})

	opts := []Option{
		WithRepository(repo),
		WithLockManager(locks),
		WithIdempotencyEngine(idempotencyEngine),
		WithCircuitBreakers(breakers),
		WithMetrics(collector),
		WithRouter(rt),
		WithProcessLockTTL(5 * time.Second),
		WithRetryPolicy(RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffMultiplier: 2}),
	}
	for _, g := range gateways {
		opts = append(opts, WithGateway(g))
	}

	c, err := New(opts...)
	require.NoError(t, err)
	return c, repo
}

func newCreateRequest() domain.CreatePaymentRequest {
	return domain.CreatePaymentRequest{
		MerchantID:     "merchant-1",
		IdempotencyKey: "key-" + domain.NewPaymentID(),
		Amount:         decimal.NewFromFloat(42.50),
		Currency:       domain.USD,
		Method:         domain.PaymentMethod{Type: domain.MethodCard, Card: &domain.CardDetails{Number: "4111111111111111", ExpiryMonth: 1, ExpiryYear: 2030}},
		Customer:       domain.Customer{ID: "cust-1", Email: "a@b.com", BillingCountry: "US"},
	}
}

func TestCreatePayment_HappyPath(t *testing.T) {
	c, _ := newTestCoordinator(t, gateway.NewMockGateway("stripe"))
	req := newCreateRequest()

	payment, err := c.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitiated, payment.State)
	assert.Equal(t, 1, payment.Version)
}

func TestCreatePayment_DuplicateIdempotencyKeyReturnsSamePayment(t *testing.T) {
	c, _ := newTestCoordinator(t, gateway.NewMockGateway("stripe"))
	req := newCreateRequest()

	first, err := c.CreatePayment(context.Background(), req)
	require.NoError(t, err)

	second, err := c.CreatePayment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Version, second.Version)
}

func TestProcessPayment_SucceedsAndTransitionsThroughLifecycle(t *testing.T) {
	gw := gateway.NewMockGateway("stripe")
	c, _ := newTestCoordinator(t, gw)

	created, err := c.CreatePayment(context.Background(), newCreateRequest())
	require.NoError(t, err)

	processed, err := c.ProcessPayment(context.Background(), domain.ProcessPaymentRequest{PaymentID: created.ID, GatewayType: "stripe"})
	require.NoError(t, err)

	assert.Equal(t, domain.StateSuccess, processed.State)
	assert.Equal(t, "stripe", processed.Gateway)
	assert.NotEmpty(t, processed.GatewayTransactionID)
	assert.True(t, processed.Version > created.Version)
}

func TestProcessPayment_NonRetryableFailureTransitionsToFailure(t *testing.T) {
	gw := gateway.NewMockGateway("stripe")
	gw.FailureMode = func(attempt int) error {
		return gateway.NewNonRetryableError("card declined", nil)
	}
	c, _ := newTestCoordinator(t, gw)

	created, err := c.CreatePayment(context.Background(), newCreateRequest())
	require.NoError(t, err)

	processed, err := c.ProcessPayment(context.Background(), domain.ProcessPaymentRequest{PaymentID: created.ID, GatewayType: "stripe"})
	require.NoError(t, err)

	assert.Equal(t, domain.StateFailure, processed.State)
	assert.NotEmpty(t, processed.FailureReason)
}

func TestProcessPayment_TransientFailureThenRecoverSucceeds(t *testing.T) {
	gw := gateway.NewMockGateway("stripe")
	gw.FailureMode = func(attempt int) error {
		if attempt < 2 {
			return gateway.NewRetryableError("timeout", nil)
		}
		return nil
	}
	c, _ := newTestCoordinator(t, gw)

	created, err := c.CreatePayment(context.Background(), newCreateRequest())
	require.NoError(t, err)

	processed, err := c.ProcessPayment(context.Background(), domain.ProcessPaymentRequest{PaymentID: created.ID, GatewayType: "stripe"})
	require.NoError(t, err)

	assert.Equal(t, domain.StateSuccess, processed.State)
}

func TestProcessPayment_TerminalPaymentIsReturnedUnchanged(t *testing.T) {
	gw := gateway.NewMockGateway("stripe")
	c, _ := newTestCoordinator(t, gw)

	created, err := c.CreatePayment(context.Background(), newCreateRequest())
	require.NoError(t, err)

	succeeded, err := c.ProcessPayment(context.Background(), domain.ProcessPaymentRequest{PaymentID: created.ID, GatewayType: "stripe"})
	require.NoError(t, err)
	require.Equal(t, domain.StateSuccess, succeeded.State)

	again, err := c.ProcessPayment(context.Background(), domain.ProcessPaymentRequest{PaymentID: created.ID, GatewayType: "stripe"})
	require.NoError(t, err)
	assert.Equal(t, succeeded.Version, again.Version)
	assert.Equal(t, succeeded.State, again.State)
}

func TestProcessPayment_UnknownPaymentIDReturnsNotFound(t *testing.T) {
	c, _ := newTestCoordinator(t, gateway.NewMockGateway("stripe"))

	_, err := c.ProcessPayment(context.Background(), domain.ProcessPaymentRequest{PaymentID: "does-not-exist"})
	assert.Error(t, err)
}

func TestProcessPayment_AutoSelectsGatewayWhenNoneForced(t *testing.T) {
	c, _ := newTestCoordinator(t, gateway.NewMockGateway("stripe"), gateway.NewMockGateway("adyen"))

	created, err := c.CreatePayment(context.Background(), newCreateRequest())
	require.NoError(t, err)

	processed, err := c.ProcessPayment(context.Background(), domain.ProcessPaymentRequest{PaymentID: created.ID})
	require.NoError(t, err)

	assert.Equal(t, domain.StateSuccess, processed.State)
	assert.Contains(t, []string{"stripe", "adyen"}, processed.Gateway)
}

func TestCreatePayment_SameKeyDifferentBodyFailsFingerprintMismatch(t *testing.T) {
	c, _ := newTestCoordinator(t, gateway.NewMockGateway("stripe"))
	req := newCreateRequest()

	_, err := c.CreatePayment(context.Background(), req)
	require.NoError(t, err)

	req.Amount = req.Amount.Add(decimal.NewFromInt(1))
	_, err = c.CreatePayment(context.Background(), req)
	assert.ErrorIs(t, err, errors.ErrFingerprintMismatch)
}
