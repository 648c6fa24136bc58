package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ wraps an AMQP connection used to publish to named durable
// queues. This service is a producer only; consumers live elsewhere.
type RabbitMQ struct {
	conn *amqp.Connection

	mu       sync.Mutex
	channel  *amqp.Channel
	declared map[string]bool
}

// NewRabbitMQ dials the broker and opens a publishing channel.
func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &RabbitMQ{
		conn:     conn,
		channel:  channel,
		declared: make(map[string]bool),
	}, nil
}

// PublishJSON marshals payload and publishes it to the named queue,
// declaring the queue durable on first use.
func (r *RabbitMQ) PublishJSON(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.declared[queue] {
		_, err := r.channel.QueueDeclare(queue, true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		r.declared[queue] = true
	}

	err = r.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queue, err)
	}

	return nil
}

// Close closes the channel and connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.channel.Close(); err != nil {
		_ = r.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return r.conn.Close()
}

// Ping reports whether the underlying connection is still open.
func (r *RabbitMQ) Ping(ctx context.Context) error {
	if r.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}
