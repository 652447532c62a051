// Package events publishes job lifecycle events to RabbitMQ as JSON.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
	"github.com/cuongbtq/transcribe-bot/shared/rabbitmq"
	"github.com/google/uuid"
)

// Broker is the publishing side of the RabbitMQ client
type Broker interface {
	Publish(ctx context.Context, msg rabbitmq.Message) error
}

// Publisher sends one message per lifecycle event, routed by event type
type Publisher struct {
	broker Broker
	logger *slog.Logger
}

// NewPublisher creates a publisher over broker
func NewPublisher(broker Broker, logger *slog.Logger) *Publisher {
	return &Publisher{broker: broker, logger: logger}
}

// Publish encodes event and sends it with a fresh message id.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := rabbitmq.Message{
		RoutingKey:  event.Type,
		MessageID:   uuid.NewString(),
		ContentType: "application/json",
		Body:        body,
		Timestamp:   event.OccurredAt,
	}
	if err := p.broker.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug("Job event published",
		slog.String("event_type", event.Type),
		slog.String("job_id", event.Identifier),
		slog.String("message_id", msg.MessageID),
	)
	return nil
}
