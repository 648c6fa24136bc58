package messaging

import (
	"context"
	"fmt"

	"github.com/confera/auth-service/pkg/broker"
)

// rabbitDispatcher publishes envelopes to RabbitMQ queues.
type rabbitDispatcher struct {
	broker *broker.RabbitMQ
}

// NewRabbitDispatcher creates a Dispatcher backed by RabbitMQ.
func NewRabbitDispatcher(b *broker.RabbitMQ) Dispatcher {
	return &rabbitDispatcher{broker: b}
}

// PublishEmail publishes an email envelope to notification.email.
func (d *rabbitDispatcher) PublishEmail(ctx context.Context, msgType string, msg EmailMessage) error {
	envelope := EmailEnvelope{Type: msgType, Message: msg}
	if err := d.broker.PublishJSON(ctx, QueueNotificationEmail, envelope); err != nil {
		return fmt.Errorf("failed to dispatch email message: %w", err)
	}
	return nil
}

// PublishSpeakerProfile publishes a profile envelope to speaker.profile.create.
func (d *rabbitDispatcher) PublishSpeakerProfile(ctx context.Context, profile SpeakerProfile) error {
	envelope := SpeakerEnvelope{Type: "speaker.profile.create", Data: profile}
	if err := d.broker.PublishJSON(ctx, QueueSpeakerProfileCreate, envelope); err != nil {
		return fmt.Errorf("failed to dispatch speaker profile message: %w", err)
	}
	return nil
}
