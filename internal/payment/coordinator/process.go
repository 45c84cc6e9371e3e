package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/gateway"
	"github.com/bugielektrik/orchestra-pay/internal/payment/lock"
	"github.com/bugielektrik/orchestra-pay/internal/payment/router"
	"github.com/bugielektrik/orchestra-pay/internal/payment/statemachine"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
	"github.com/bugielektrik/orchestra-pay/pkg/logutil"
)

const processOwner = "coordinator:process"

// ProcessPayment drives a payment from its current state to SUCCESS
// or FAILURE: select a gateway, authenticate, initiate, then run the
// charge through the retry policy and circuit breaker, persisting
// every transition atomically with its event.
func (c *Coordinator) ProcessPayment(ctx context.Context, req domain.ProcessPaymentRequest) (domain.Payment, error) {
	return logutil.LogMethodWithResult(ctx, "coordinator.ProcessPayment", func() (domain.Payment, error) {
		if err := req.Validate(); err != nil {
			return domain.Payment{}, err
		}

		var result domain.Payment
		var resultErr error

		lockKey := "payment:process:" + req.PaymentID
		owner := processOwner + ":" + uuid.NewString()
		err := lock.WithLock(ctx, c.locks, lockKey, owner, c.processLockTTL, c.processLockTTL, retryPollInterval, func(ctx context.Context) error {
			result, resultErr = c.processLocked(ctx, req)
			return nil
		})
		if err != nil {
			return domain.Payment{}, err
		}
		return result, resultErr
	})
}

func (c *Coordinator) processLocked(ctx context.Context, req domain.ProcessPaymentRequest) (domain.Payment, error) {
	row, found, err := c.repo.FindByID(ctx, req.PaymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	payment, err := findOrNotFound(row, found, req.PaymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment.State.IsTerminal() {
		return payment, nil
	}

	gatewayName, err := c.selectGateway(req, payment)
	if err != nil {
		return domain.Payment{}, err
	}
	gw, ok := c.gateways[gatewayName]
	if !ok {
		return domain.Payment{}, errors.ErrNoGatewayAvailable.WithDetails("gateway", gatewayName)
	}

	if payment.State == domain.StateInitiated {
		payment, err = c.transitionAuthenticated(ctx, payment, gw, req.CorrelationID)
		if err != nil {
			return domain.Payment{}, err
		}
	}

	if payment.State == domain.StateAuthenticated {
		var txnID string
		payment, txnID, err = c.initiate(ctx, payment, gw)
		if err != nil {
			return c.fail(ctx, payment, err, req.CorrelationID)
		}

		payment, err = c.transitionProcessing(ctx, payment, txnID, req.CorrelationID)
		if err != nil {
			return domain.Payment{}, err
		}
	}

	breaker := c.breakers.Get(gatewayName)
	procResult, err := withGatewayRetry(ctx, c.retry, func() (gateway.ProcessResult, error) {
		var res gateway.ProcessResult
		execErr := breaker.Execute(func() error {
			start := time.Now()
			r, e := gw.Process(ctx, payment)
			c.metrics.Record(gatewayName, e == nil, float64(time.Since(start).Milliseconds()), 0)
			res = r
			return e
		})
		return res, execErr
	})
	if err != nil {
		if errors.Is(err, errors.ErrCircuitOpen) {
			// The breaker rejected the Process call before it reached the
			// gateway; the payment stays PROCESSING so the caller can retry
			// the operation once the circuit clears.
			return domain.Payment{}, err
		}
		return c.fail(ctx, payment, err, req.CorrelationID)
	}

	return c.succeed(ctx, payment, procResult, req.CorrelationID)
}

func (c *Coordinator) selectGateway(req domain.ProcessPaymentRequest, payment domain.Payment) (string, error) {
	if req.GatewayType != "" {
		return req.GatewayType, nil
	}
	if payment.Gateway != "" {
		return payment.Gateway, nil
	}
	ctx := router.Context{
		Amount:        payment.Amount.Amount.InexactFloat64(),
		Currency:      payment.Amount.Currency,
		PaymentMethod: payment.Method.Type,
		Country:       payment.Customer.BillingCountry,
		MerchantID:    payment.MerchantID,
		Metadata:      payment.Metadata,
	}
	decision, err := c.routerImpl.Select(ctx, c.availableGateways())
	if err != nil {
		return "", err
	}
	return decision.Gateway, nil
}

func (c *Coordinator) transitionAuthenticated(ctx context.Context, payment domain.Payment, gw gateway.Gateway, correlationID string) (domain.Payment, error) {
	if _, err := gw.Authenticate(ctx, payment); err != nil {
		return domain.Payment{}, err
	}

	if err := statemachine.CompareAndSwap(payment.Version, payment.Version, payment.State, domain.StateAuthenticated); err != nil {
		return domain.Payment{}, err
	}

	next := payment.Clone()
	next.Gateway = gw.Name()
	next.State = domain.StateAuthenticated
	next.Version++
	next.UpdatedAt = time.Now()

	event := domain.NewPaymentEvent(domain.EventPaymentAuthenticated, next, correlationID)
	if err := c.persistWithEvent(ctx, next, event); err != nil {
		return domain.Payment{}, err
	}
	return next, nil
}

func (c *Coordinator) initiate(ctx context.Context, payment domain.Payment, gw gateway.Gateway) (domain.Payment, string, error) {
	res, err := gw.Initiate(ctx, payment)
	if err != nil {
		return payment, "", err
	}
	return payment, res.GatewayTransactionID, nil
}

func (c *Coordinator) transitionProcessing(ctx context.Context, payment domain.Payment, txnID, correlationID string) (domain.Payment, error) {
	if err := statemachine.CompareAndSwap(payment.Version, payment.Version, payment.State, domain.StateProcessing); err != nil {
		return domain.Payment{}, err
	}

	next := payment.Clone()
	next.GatewayTransactionID = txnID
	next.State = domain.StateProcessing
	next.Version++
	next.UpdatedAt = time.Now()

	event := domain.NewPaymentEvent(domain.EventPaymentProcessing, next, correlationID)
	if err := c.persistWithEvent(ctx, next, event); err != nil {
		return domain.Payment{}, err
	}
	return next, nil
}

func (c *Coordinator) succeed(ctx context.Context, payment domain.Payment, result gateway.ProcessResult, correlationID string) (domain.Payment, error) {
	if err := statemachine.CompareAndSwap(payment.Version, payment.Version, payment.State, domain.StateSuccess); err != nil {
		return domain.Payment{}, err
	}

	next := payment.Clone()
	next.State = domain.StateSuccess
	if result.TransactionID != "" {
		next.GatewayTransactionID = result.TransactionID
	}
	next.Version++
	next.UpdatedAt = time.Now()

	event := domain.NewPaymentEvent(domain.EventPaymentSucceeded, next, correlationID)
	if err := c.persistWithEvent(ctx, next, event); err != nil {
		return domain.Payment{}, err
	}

	c.logger(ctx).Info("payment succeeded", zap.String("paymentId", next.ID), zap.String("gateway", next.Gateway))
	return next, nil
}

func (c *Coordinator) fail(ctx context.Context, payment domain.Payment, cause error, correlationID string) (domain.Payment, error) {
	if err := statemachine.CompareAndSwap(payment.Version, payment.Version, payment.State, domain.StateFailure); err != nil {
		return domain.Payment{}, err
	}

	next := payment.Clone()
	next.State = domain.StateFailure
	next.FailureReason = cause.Error()
	next.Version++
	next.UpdatedAt = time.Now()

	event := domain.NewPaymentEvent(domain.EventPaymentFailed, next, correlationID)
	if err := c.persistWithEvent(ctx, next, event); err != nil {
		return domain.Payment{}, err
	}

	c.logger(ctx).Warn("payment failed", zap.String("paymentId", next.ID), zap.String("reason", next.FailureReason))
	return next, nil
}
