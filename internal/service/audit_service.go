package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/agent"
	"ai-agent-be/pkg/events"
)

const auditPublishTimeout = 2 * time.Second

// auditSink forwards agent activity to the event bus and the tool log
type auditSink struct {
	publisher events.Publisher
	toolLog   logger.ILogger
}

// NewAuditSink returns the dispatcher's event sink. publisher may be nil
// when the bus is unavailable; events are then only logged.
func NewAuditSink(publisher events.Publisher, toolLog logger.ILogger) agent.EventSink {
	return &auditSink{publisher: publisher, toolLog: toolLog}
}

func (s *auditSink) Publish(ctx context.Context, e agent.Event) error {
	data, err := toPayload(e)
	if err != nil {
		return err
	}

	if e.Type == agent.EventToolExecuted {
		s.toolLog.Info("Tool", e.Tool, data)
	}

	if s.publisher == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, auditPublishTimeout)
	defer cancel()
	return s.publisher.Publish(ctx, events.BaseEvent{
		Type:       "agent." + e.Type,
		Data:       data,
		OccurredAt: e.OccurredAt,
	})
}

func toPayload(e agent.Event) (map[string]interface{}, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
