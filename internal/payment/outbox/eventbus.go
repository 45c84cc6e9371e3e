package outbox

import (
	"context"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
)

// EventBus is the external collaborator events are ultimately
// delivered to. Publish may fail; the Publisher below owns all retry
// policy. Consumers on the other end must be idempotent on EventID.
type EventBus interface {
	Publish(ctx context.Context, event domain.PaymentEvent) error
}
