package anthropic

import (
	"ai-agent-be/pkg/llm"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

type AnthropicProvider struct {
	client    sdk.Client
	modelName string
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, baseURL, modelName string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &AnthropicProvider{
		client:    sdk.NewClient(opts...),
		modelName: modelName,
	}
}

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	resp, err := p.client.Messages.New(ctx, p.params(history, nil, opts...))
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *AnthropicProvider) SelectTool(ctx context.Context, history []llm.Message, tools []llm.Tool, opts ...llm.Option) (*llm.ToolCall, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	resp, err := p.client.Messages.New(ctx, p.params(history, tools, opts...))
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		args := map[string]interface{}{}
		if len(block.Input) > 0 {
			if err := json.Unmarshal(block.Input, &args); err != nil {
				return nil, fmt.Errorf("%w: decode tool input: %w", llm.ErrMalformedToolCall, err)
			}
		}
		return &llm.ToolCall{Name: block.Name, Arguments: args}, nil
	}
	return nil, nil
}

func (p *AnthropicProvider) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.params(history, nil, opts...))
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}
	return &eventStream{stream: stream}, nil
}

func (p *AnthropicProvider) params(history []llm.Message, tools []llm.Tool, opts ...llm.Option) sdk.MessageNewParams {
	options := llm.ApplyOptions(opts...)

	model := p.modelName
	if options.Model != "" {
		model = options.Model
	}

	system, turns := llm.SplitSystem(history)
	messages := make([]sdk.MessageParam, 0, len(turns))
	for _, msg := range turns {
		if msg.Role == llm.RoleAssistant || msg.Role == "model" {
			messages = append(messages, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
			continue
		}
		messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   int64(options.MaxTokens),
		Messages:    messages,
		Temperature: sdk.Float(options.Temperature),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	for _, t := range tools {
		schema := sdk.ToolInputSchemaParam{Properties: t.Parameters["properties"]}
		if required, ok := t.Parameters["required"].([]string); ok {
			schema.Required = required
		}
		params.Tools = append(params.Tools, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return params
}

type eventStream struct {
	stream *ssestream.Stream[sdk.MessageStreamEventUnion]
}

func (s *eventStream) Recv() (llm.Chunk, error) {
	for s.stream.Next() {
		event := s.stream.Current()
		delta, ok := event.AsAny().(sdk.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(sdk.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		return llm.Chunk{Content: text.Text}, nil
	}
	if err := s.stream.Err(); err != nil {
		return llm.Chunk{}, fmt.Errorf("anthropic stream: %w", err)
	}
	return llm.Chunk{}, io.EOF
}

func (s *eventStream) Close() error {
	return s.stream.Close()
}
