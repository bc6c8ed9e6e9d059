package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/events"

	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event. A returned error redelivers the message.
type EventHandler func(ctx context.Context, event events.Event) error

const (
	handlerTimeout = 2 * time.Minute
	redeliverDelay = 5 * time.Second
	maxDeliver     = 5
)

// Subscriber runs durable JetStream consumers
type Subscriber struct {
	client *Client
	logger logger.ILogger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(client *Client, log logger.ILogger) *Subscriber {
	return &Subscriber{client: client, logger: log}
}

// Subscribe registers handler for a subject pattern on a durable consumer,
// so messages published while the service is down are not lost.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) error {
	consumer, err := s.client.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       handlerTimeout + 30*time.Second,
		MaxDeliver:    maxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		s.handle(msg, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, consumeCtx)
	s.mu.Unlock()

	s.logger.Info("Subscriber", "Subscribed", map[string]interface{}{
		"subject": subject,
		"durable": durableName,
	})
	return nil
}

func (s *Subscriber) handle(msg jetstream.Msg, handler EventHandler) {
	event, err := events.Decode(msg.Subject(), msg.Data())
	if err != nil {
		// Redelivery cannot fix a malformed payload
		s.logger.Error("Subscriber", "Dropping malformed event", map[string]interface{}{
			"subject": msg.Subject(),
			"error":   err.Error(),
		})
		_ = msg.Term()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := handler(ctx, event); err != nil {
		s.logger.Warn("Subscriber", "Handler failed, redelivering", map[string]interface{}{
			"subject": msg.Subject(),
			"error":   err.Error(),
		})
		_ = msg.NakWithDelay(redeliverDelay)
		return
	}
	_ = msg.Ack()
}

// Close stops every consumer. The connection is owned by the Client.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.consumes {
		c.Stop()
	}
	s.consumes = nil
}
