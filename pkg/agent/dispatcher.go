// Package agent runs conversation turns: it gathers history and knowledge,
// lets the model use tools according to the session's strategy, and streams
// the answer back.
package agent

import (
	"ai-agent-be/internal/constant"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/rag/history"
	"ai-agent-be/pkg/rag/search"
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	catalogLocal  = "local"
	catalogRemote = "remote"

	DefaultMaxIterations = 5
)

var tracer = otel.Tracer("ai-agent-be/agent")

// Config holds per-process dispatch settings
type Config struct {
	// FallbackText replaces the output of a tool that failed to run
	FallbackText   string
	MaxIterations  int
	KnowledgeField search.Field
	// RewriteKnowledgeQuery expands the input before knowledge retrieval
	RewriteKnowledgeQuery bool
}

func DefaultConfig() Config {
	return Config{
		FallbackText:          constant.AgentFailActionPrompt,
		MaxIterations:         DefaultMaxIterations,
		KnowledgeField:        search.FieldContent,
		RewriteKnowledgeQuery: true,
	}
}

// Dispatcher runs turns for one session
type Dispatcher struct {
	session *Session
	cfg     Config
	logger  logger.ILogger
	events  EventSink
}

func NewDispatcher(session *Session, cfg Config, log logger.ILogger, events EventSink) *Dispatcher {
	defaults := DefaultConfig()
	if cfg.FallbackText == "" {
		cfg.FallbackText = defaults.FallbackText
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if !cfg.KnowledgeField.Valid() {
		cfg.KnowledgeField = defaults.KnowledgeField
	}
	if events == nil {
		events = NopSink{}
	}
	return &Dispatcher{session: session, cfg: cfg, logger: log, events: events}
}

// Run starts a turn. Context gathering and the first model call happen
// before Run returns, so a fatal failure yields an error and no stream.
// Cancelling ctx or closing the stream cancels the turn.
func (d *Dispatcher) Run(ctx context.Context, input string) (Stream, error) {
	ctx, span := tracer.Start(ctx, "agent.Run", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.strategy", d.session.Strategy.String()),
		attribute.String("agent.dialog_id", d.session.DialogID.String()),
	)

	start := time.Now()
	turnCtx, cancel := context.WithCancel(ctx)
	t := &turn{cancel: cancel}
	t.onDone = func(err error) { d.complete(ctx, start, err) }

	historyText, knowledge, err := d.gather(turnCtx, input)
	if err != nil {
		t.finish(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "context gather failed")
		return nil, err
	}

	var stream Stream
	switch d.session.Strategy {
	case DirectFunctionSelection:
		stream, err = d.startFunctionCall(turnCtx, t, input, historyText, knowledge)
	default:
		stream, err = d.startReact(turnCtx, t, input, historyText, knowledge)
	}
	if err != nil {
		t.finish(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "strategy failed")
		return nil, err
	}
	return stream, nil
}

// gather fetches history and knowledge concurrently; either failing aborts the turn
func (d *Dispatcher) gather(ctx context.Context, input string) (string, string, error) {
	var historyText, knowledge string

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		topK := d.session.HistoryTopK
		if topK <= 0 {
			topK = history.DefaultTopK
		}
		text, err := d.session.History.History(egCtx, input, d.session.DialogID, topK)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		historyText = text
		return nil
	})
	eg.Go(func() error {
		text, err := d.retrieveKnowledge(egCtx, input)
		if err != nil {
			return fmt.Errorf("knowledge: %w", err)
		}
		knowledge = text
		return nil
	})

	if err := eg.Wait(); err != nil {
		d.logger.Error("Dispatcher", "context gathering failed", map[string]interface{}{
			"dialog_id": d.session.DialogID.String(),
			"error":     err.Error(),
		})
		return "", "", contextGatherError(err)
	}
	return historyText, knowledge, nil
}

func (d *Dispatcher) retrieveKnowledge(ctx context.Context, input string) (string, error) {
	if d.session.Knowledge == nil || len(d.session.KnowledgeScope) == 0 {
		return search.NoDocumentsFound, nil
	}
	return d.session.Knowledge.Retrieve(ctx, search.Request{
		Query:   input,
		Scope:   d.session.KnowledgeScope,
		Rewrite: d.cfg.RewriteKnowledgeQuery,
		Field:   d.cfg.KnowledgeField,
	})
}

type invokeFunc func(ctx context.Context, name string, args map[string]interface{}) (string, error)

// startFunctionCall resolves a local and a remote tool concurrently, then
// streams the answer with both results in the prompt.
func (d *Dispatcher) startFunctionCall(ctx context.Context, t *turn, input, historyText, knowledge string) (Stream, error) {
	prompt := fmt.Sprintf(constant.AgentFunctionCallPrompt, historyText, input)

	var local, remote Resolution
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		local, err = d.resolve(egCtx, catalogLocal, prompt, d.session.Local.LLMTools(), d.session.Local.Invoke)
		return err
	})
	eg.Go(func() error {
		var err error
		remote, err = d.resolve(egCtx, catalogRemote, prompt, d.session.remoteLLMTools(), d.session.invokeRemote)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, transportError(StageToolResolve, err)
	}

	answer := fmt.Sprintf(constant.AgentAnswerPrompt,
		historyText,
		knowledge,
		local.Text(d.cfg.FallbackText),
		remote.Text(d.cfg.FallbackText),
		input,
	)
	messages := make([]llm.Message, 0, 2)
	if d.session.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: d.session.SystemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: answer})

	src, err := d.session.Model.Stream(ctx, messages)
	if err != nil {
		return nil, transportError(StageStrategyExec, err)
	}
	return newModelStream(src, t), nil
}

// resolve asks the model for at most one tool from the given catalog and
// runs it. Only a failure to reach the model is returned as an error.
func (d *Dispatcher) resolve(ctx context.Context, catalog, prompt string, available []llm.Tool, invoke invokeFunc) (Resolution, error) {
	if len(available) == 0 {
		return Resolution{Kind: NoSelection}, nil
	}

	call, err := d.session.Model.SelectTool(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, available)
	if err != nil && !errors.Is(err, llm.ErrMalformedToolCall) {
		return Resolution{}, fmt.Errorf("%s tool selection: %w", catalog, err)
	}
	if err != nil || call == nil || call.Name == "" {
		details := map[string]interface{}{
			"dialog_id": d.session.DialogID.String(),
			"catalog":   catalog,
		}
		if err != nil {
			details["error"] = err.Error()
		}
		d.logger.Info("Dispatcher", "no tool selected", details)
		res := Resolution{Kind: NoSelection}
		toolResolutionsTotal.WithLabelValues(catalog, res.Kind.String()).Inc()
		return res, nil
	}

	out, err := invoke(ctx, call.Name, call.Arguments)
	res := Resolution{Kind: Selected, Tool: call.Name, Args: call.Arguments, Output: out}
	if err != nil {
		res = Resolution{Kind: ExecutionFailed, Tool: call.Name, Args: call.Arguments, Err: err}
	}
	d.recordTool(ctx, catalog, res)
	return res, nil
}

// recordTool logs, counts and publishes one tool execution
func (d *Dispatcher) recordTool(ctx context.Context, catalog string, res Resolution) {
	toolResolutionsTotal.WithLabelValues(catalog, res.Kind.String()).Inc()

	details := map[string]interface{}{
		"dialog_id": d.session.DialogID.String(),
		"catalog":   catalog,
		"tool":      res.Tool,
	}
	event := Event{
		Type:       EventToolExecuted,
		AgentID:    d.session.AgentID.String(),
		DialogID:   d.session.DialogID.String(),
		Catalog:    catalog,
		Tool:       res.Tool,
		Outcome:    res.Kind.String(),
		OccurredAt: time.Now(),
	}
	if res.Err != nil {
		details["error"] = res.Err.Error()
		event.Error = res.Err.Error()
		d.logger.Warn("Dispatcher", "tool action failed, using fallback", details)
	} else {
		d.logger.Info("Dispatcher", "tool executed", details)
	}
	d.publish(ctx, event)
}

func (d *Dispatcher) complete(ctx context.Context, start time.Time, err error) {
	strategy := d.session.Strategy.String()
	outcome := "completed"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
	}

	elapsed := time.Since(start)
	dispatchTotal.WithLabelValues(strategy, outcome).Inc()
	dispatchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())

	event := Event{
		Type:       EventDispatchCompleted,
		AgentID:    d.session.AgentID.String(),
		DialogID:   d.session.DialogID.String(),
		Strategy:   strategy,
		Outcome:    outcome,
		DurationMs: elapsed.Milliseconds(),
		OccurredAt: time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	d.publish(ctx, event)
}

func (d *Dispatcher) publish(ctx context.Context, event Event) {
	if err := d.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		d.logger.Warn("Dispatcher", "failed to publish event", map[string]interface{}{
			"type":  event.Type,
			"error": err.Error(),
		})
	}
}
