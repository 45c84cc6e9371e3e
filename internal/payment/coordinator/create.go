package coordinator

import (
	"context"

	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/internal/payment/idempotency"
	"github.com/bugielektrik/orchestra-pay/pkg/errors"
	"github.com/bugielektrik/orchestra-pay/pkg/logutil"
)

// CreatePayment validates req, then runs the actual creation through
// the idempotency engine keyed on merchantId:CreatePayment:idempotencyKey.
// A repeat call with the same key and the same request body replays the
// first call's Payment; a repeat call reusing the key with a different
// body fails FingerprintMismatch instead of silently returning the
// first payment.
func (c *Coordinator) CreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (domain.Payment, error) {
	return logutil.LogMethodWithResult(ctx, "coordinator.CreatePayment", func() (domain.Payment, error) {
		if err := req.Validate(); err != nil {
			return domain.Payment{}, err
		}

		key := idempotency.ScopedKey(req.MerchantID, "CreatePayment", req.IdempotencyKey)
		result, err := c.idempotent.ExecuteIdempotent(ctx, key, req, func(ctx context.Context) (any, error) {
			return c.doCreatePayment(ctx, req)
		})
		if err != nil {
			return domain.Payment{}, err
		}
		return result.(domain.Payment), nil
	})
}

// doCreatePayment builds and persists the Payment. ExecuteIdempotent
// only calls this once per key+fingerprint; a found row in the
// repository at this point means a prior call crashed after persisting
// but before the idempotency record was written, so it is replayed
// rather than re-created.
func (c *Coordinator) doCreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (domain.Payment, error) {
	if existing, found, err := c.repo.FindByIdempotencyKey(ctx, req.MerchantID, req.IdempotencyKey); err != nil {
		return domain.Payment{}, err
	} else if found {
		return existing, nil
	}

	money, err := domain.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return domain.Payment{}, err
	}

	payment := domain.NewPayment(req.MerchantID, req.IdempotencyKey, money, req.Method, req.Customer, req.Metadata)
	event := domain.NewPaymentEvent(domain.EventPaymentInitiated, payment, "")

	if err := c.persistWithEvent(ctx, payment, event); err != nil {
		return domain.Payment{}, err
	}

	c.logger(ctx).Info("payment created",
		zap.String("paymentId", payment.ID),
		zap.String("idempotencyKey", payment.IdempotencyKey),
		zap.String("state", string(payment.State)),
	)
	return payment, nil
}

// findOrNotFound turns a repository lookup's bare (zero, false) into a
// PaymentNotFound error; ProcessPayment's lookup uses it.
func findOrNotFound(p domain.Payment, found bool, id string) (domain.Payment, error) {
	if !found {
		return domain.Payment{}, errors.ErrPaymentNotFound.WithDetails("id", id)
	}
	return p, nil
}
