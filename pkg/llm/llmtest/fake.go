// Package llmtest provides a scriptable llm.LLMProvider for tests.
package llmtest

import (
	"ai-agent-be/pkg/llm"
	"context"
	"errors"
	"sync"
)

// Provider answers from caller-supplied functions and records every call.
// Unset functions return an error so unexpected calls fail loudly.
type Provider struct {
	ChatFunc       func(ctx context.Context, history []llm.Message) (string, error)
	SelectToolFunc func(ctx context.Context, history []llm.Message, tools []llm.Tool) (*llm.ToolCall, error)
	StreamFunc     func(ctx context.Context, history []llm.Message) (llm.Stream, error)

	mu          sync.Mutex
	ChatCalls   [][]llm.Message
	SelectCalls [][]llm.Tool
	StreamCalls [][]llm.Message
}

var _ llm.LLMProvider = &Provider{}

var ErrUnscripted = errors.New("llmtest: call not scripted")

func (p *Provider) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	p.ChatCalls = append(p.ChatCalls, history)
	p.mu.Unlock()
	if p.ChatFunc == nil {
		return "", ErrUnscripted
	}
	return p.ChatFunc(ctx, history)
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *Provider) SelectTool(ctx context.Context, history []llm.Message, tools []llm.Tool, _ ...llm.Option) (*llm.ToolCall, error) {
	p.mu.Lock()
	p.SelectCalls = append(p.SelectCalls, tools)
	p.mu.Unlock()
	if p.SelectToolFunc == nil {
		return nil, ErrUnscripted
	}
	return p.SelectToolFunc(ctx, history, tools)
}

func (p *Provider) Stream(ctx context.Context, history []llm.Message, _ ...llm.Option) (llm.Stream, error) {
	p.mu.Lock()
	p.StreamCalls = append(p.StreamCalls, history)
	p.mu.Unlock()
	if p.StreamFunc == nil {
		return nil, ErrUnscripted
	}
	return p.StreamFunc(ctx, history)
}

// SelectCount reports how many times SelectTool was invoked
func (p *Provider) SelectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.SelectCalls)
}

// LastStream returns the history passed to the most recent Stream call
func (p *Provider) LastStream() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.StreamCalls) == 0 {
		return nil
	}
	return p.StreamCalls[len(p.StreamCalls)-1]
}
