package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ wraps a single connection and channel. Callers are expected
// to construct one per process and share it; Close tears both down.
type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// Connect dials url and opens a channel on it.
func Connect(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitMQ{Conn: conn, Channel: ch}, nil
}

// Close releases the channel and connection.
func (r *RabbitMQ) Close() error {
	if r == nil {
		return nil
	}
	chErr := r.Channel.Close()
	connErr := r.Conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}
