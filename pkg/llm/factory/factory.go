package factory

import (
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/llm/anthropic"
	"ai-agent-be/pkg/llm/ollama"
	"ai-agent-be/pkg/llm/openai"
	"fmt"
	"strings"
)

// ProviderConfig identifies a model endpoint
type ProviderConfig struct {
	Provider string // "ollama", "openai", "anthropic", "huggingface", "deepseek"
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "openai":
		return openai.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "huggingface":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://router.huggingface.co/v1"
		}
		return openai.NewOpenAIProvider(cfg.APIKey, baseURL, cfg.Model), nil
	case "deepseek":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.deepseek.com/v1"
		}
		return openai.NewOpenAIProvider(cfg.APIKey, baseURL, cfg.Model), nil
	case "anthropic":
		return anthropic.NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
