package openai

import (
	"ai-agent-be/pkg/llm"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAIProvider talks to the OpenAI API or any endpoint compatible with it
// (HuggingFace router, vLLM, LM Studio, DeepSeek).
type OpenAIProvider struct {
	client    oai.Client
	modelName string
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, modelName string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &OpenAIProvider{
		client:    oai.NewClient(opts...),
		modelName: modelName,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(history, nil, opts...))
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *OpenAIProvider) SelectTool(ctx context.Context, history []llm.Message, tools []llm.Tool, opts ...llm.Option) (*llm.ToolCall, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	resp, err := p.client.Chat.Completions.New(ctx, p.params(history, tools, opts...))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, nil
	}

	call := resp.Choices[0].Message.ToolCalls[0].Function
	args, err := llm.DecodeArguments(call.Arguments)
	if err != nil {
		return nil, err
	}
	return &llm.ToolCall{Name: call.Name, Arguments: args}, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(history, nil, opts...))
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	return &chunkStream{stream: stream}, nil
}

func (p *OpenAIProvider) params(history []llm.Message, tools []llm.Tool, opts ...llm.Option) oai.ChatCompletionNewParams {
	options := llm.ApplyOptions(opts...)

	model := p.modelName
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			messages = append(messages, oai.SystemMessage(msg.Content))
		case llm.RoleAssistant, "model":
			messages = append(messages, oai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, oai.UserMessage(msg.Content))
		}
	}

	params := oai.ChatCompletionNewParams{
		Model:       oai.ChatModel(model),
		Messages:    messages,
		Temperature: oai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = oai.Int(int64(options.MaxTokens))
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, oai.ChatCompletionToolParam{
			Function: oai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: oai.String(t.Description),
				Parameters:  oai.FunctionParameters(t.Parameters),
			},
		})
	}
	return params
}

type chunkStream struct {
	stream *ssestream.Stream[oai.ChatCompletionChunk]
}

func (s *chunkStream) Recv() (llm.Chunk, error) {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return llm.Chunk{Content: chunk.Choices[0].Delta.Content}, nil
	}
	if err := s.stream.Err(); err != nil {
		return llm.Chunk{}, fmt.Errorf("openai stream: %w", err)
	}
	return llm.Chunk{}, io.EOF
}

func (s *chunkStream) Close() error {
	return s.stream.Close()
}
