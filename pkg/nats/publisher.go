package nats

import (
	"context"
	"fmt"

	"ai-agent-be/pkg/events"
)

// Publisher sends events to JetStream
type Publisher struct {
	client *Client
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := events.Encode(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := events.Subject(event.EventType())
	if _, err := p.client.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}
