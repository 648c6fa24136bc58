package messaging

import "context"

// Queue names consumed by the notification and speaker services.
const (
	QueueNotificationEmail    = "notification.email"
	QueueSpeakerProfileCreate = "speaker.profile.create"
)

// EmailMessage is the payload of a notification.email envelope.
type EmailMessage struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

// SpeakerProfile is the payload of a speaker.profile.create envelope.
type SpeakerProfile struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// EmailEnvelope is the wire format for email messages.
type EmailEnvelope struct {
	Type    string       `json:"type"`
	Message EmailMessage `json:"message"`
}

// SpeakerEnvelope is the wire format for speaker profile messages.
type SpeakerEnvelope struct {
	Type string         `json:"type"`
	Data SpeakerProfile `json:"data"`
}

// Dispatcher publishes fire-and-forget messages for downstream
// services. Implementations must not retry; the queue owns redelivery.
type Dispatcher interface {
	PublishEmail(ctx context.Context, msgType string, msg EmailMessage) error
	PublishSpeakerProfile(ctx context.Context, profile SpeakerProfile) error
}
