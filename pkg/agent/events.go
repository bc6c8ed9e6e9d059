package agent

import (
	"context"
	"time"
)

const (
	EventDispatchCompleted = "dispatch.completed"
	EventToolExecuted      = "tool.executed"
)

// Event is an audit record of agent activity
type Event struct {
	Type       string    `json:"type"`
	AgentID    string    `json:"agent_id"`
	DialogID   string    `json:"dialog_id"`
	Strategy   string    `json:"strategy,omitempty"`
	Catalog    string    `json:"catalog,omitempty"`
	Tool       string    `json:"tool,omitempty"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventSink receives audit events. Publish failures never fail a turn.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }
