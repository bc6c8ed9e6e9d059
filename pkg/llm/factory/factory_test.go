package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  bool
	}{
		{name: "ollama", provider: "ollama"},
		{name: "openai", provider: "openai"},
		{name: "case insensitive", provider: "OpenAI"},
		{name: "huggingface router", provider: "huggingface"},
		{name: "deepseek", provider: "deepseek"},
		{name: "anthropic", provider: "anthropic"},
		{name: "unknown", provider: "cohere", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLLMProvider(ProviderConfig{Provider: tt.provider, Model: "m"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}
