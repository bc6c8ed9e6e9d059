package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// ApplyOptions resolves opts over the package defaults
func ApplyOptions(opts ...Option) *Options {
	options := &Options{
		Temperature: 0.7,
		MaxTokens:   2048,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Tool describes a function the model may select
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema object
}

// ToolCall is the model's choice of a tool and its arguments
type ToolCall struct {
	Name      string
	Arguments map[string]interface{}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// SelectTool offers tools to the model and returns its pick.
	// A nil ToolCall with a nil error means the model selected nothing.
	SelectTool(ctx context.Context, history []Message, tools []Tool, options ...Option) (*ToolCall, error)

	// Stream returns the reply as it is produced
	Stream(ctx context.Context, history []Message, options ...Option) (Stream, error)
}
