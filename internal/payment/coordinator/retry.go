package coordinator

import (
	"context"
	"math/rand"
	"time"

	"github.com/bugielektrik/orchestra-pay/internal/payment/gateway"
)

// retryableError is satisfied by any error that can report whether
// the caller's retry policy should retry it.
type retryableError interface {
	IsRetryable() bool
}

// withGatewayRetry calls fn up to cfg.MaxRetries times, retrying only
// when the returned error is tagged retryable, using exponential
// backoff with full jitter between attempts.
func withGatewayRetry(ctx context.Context, cfg RetryConfig, fn func() (gateway.ProcessResult, error)) (gateway.ProcessResult, error) {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var retryable bool
		if re, ok := err.(retryableError); ok {
			retryable = re.IsRetryable()
		}
		if !retryable || attempt == cfg.MaxRetries-1 {
			return gateway.ProcessResult{}, err
		}

		wait := time.Duration(rand.Int63n(int64(delay) + 1))
		select {
		case <-ctx.Done():
			return gateway.ProcessResult{}, ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return gateway.ProcessResult{}, lastErr
}
