package nats

import (
	"context"
	"fmt"
	"time"

	"ai-agent-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream holding every events.> subject
const StreamName = "EVENTS"

// Client is one NATS connection shared by the publisher and subscriber
type Client struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func Connect(url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.Name("ai-agent-be"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{nc: nc, js: js}, nil
}

// EnsureStream creates or updates the EVENTS stream. Audit events are kept
// for a week; the knowledge pipeline relies on durable consumers.
func (c *Client) EnsureStream(ctx context.Context) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{events.SubjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", StreamName, err)
	}
	return nil
}

func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
	}
}
