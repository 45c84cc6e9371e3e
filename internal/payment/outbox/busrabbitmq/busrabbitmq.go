// Package busrabbitmq adapts pkg/broker/rabbitmq into the outbox
// package's EventBus contract.
package busrabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/internal/payment/domain"
	"github.com/bugielektrik/orchestra-pay/pkg/broker/rabbitmq"
	"github.com/bugielektrik/orchestra-pay/pkg/log"
)

// EventBus publishes payment events to a fanout exchange declared at
// construction time. Routing/queue binding is left to deployment
// configuration; the core only owns the publish side.
type EventBus struct {
	conn     *rabbitmq.RabbitMQ
	exchange string
	logger   *zap.Logger
}

// New declares exchange (fanout, durable) on conn's channel and
// returns a ready-to-use EventBus.
func New(conn *rabbitmq.RabbitMQ, exchange string) (*EventBus, error) {
	if err := conn.Channel.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, err
	}
	return &EventBus{conn: conn, exchange: exchange, logger: log.GetLogger()}, nil
}

// Publish marshals event to JSON and publishes it to the exchange.
// Any error here is surfaced to the outbox Publisher, which owns
// retry/backoff; Publish itself never retries.
func (b *EventBus) Publish(ctx context.Context, event domain.PaymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.conn.Channel.PublishWithContext(
		ctx,
		b.exchange,
		"", // fanout ignores routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Timestamp:    event.Timestamp,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
