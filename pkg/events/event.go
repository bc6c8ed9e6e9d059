package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SubjectPrefix is the root of every subject on the bus
const SubjectPrefix = "events."

const (
	TypeDispatchCompleted    = "agent.dispatch.completed"
	TypeToolExecuted         = "agent.tool.executed"
	TypeKnowledgeChunkUpsert = "knowledge.chunk_upserted"
	TypeKnowledgeFileDeleted = "knowledge.file_deleted"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the dotted type, e.g. "knowledge.file_deleted"
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// Publisher sends events to the bus
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Subject is the bus subject an event type is published on
func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// envelope is the wire form, so consumers get the type and time without
// parsing the subject
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func Encode(event Event) ([]byte, error) {
	occurredAt := event.Timestamp()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return json.Marshal(envelope{
		Type:       event.EventType(),
		OccurredAt: occurredAt,
		Data:       event.Payload(),
	})
}

// Decode reads an envelope. Producers that publish a bare JSON object are
// accepted too; the type then comes from the subject.
func Decode(subject string, raw []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event on %s: %w", subject, err)
	}
	if env.Type != "" && env.Data != nil {
		return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
	}

	var bare map[string]interface{}
	if err := json.Unmarshal(raw, &bare); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event on %s: %w", subject, err)
	}
	return BaseEvent{
		Type:       strings.TrimPrefix(subject, SubjectPrefix),
		Data:       bare,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// DecodeData converts an event payload into a typed struct
func DecodeData(event Event, out interface{}) error {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
