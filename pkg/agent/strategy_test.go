package agent

import (
	"errors"
	"testing"

	"ai-agent-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func newSilentLogger() logger.ILogger {
	return logger.NewNopLogger()
}

func TestCapabilityRegistry_StrategyFor(t *testing.T) {
	registry := NewCapabilityRegistry("gpt-4o", " Qwen-Plus ", "")

	tests := []struct {
		model string
		want  Strategy
	}{
		{model: "gpt-4o", want: DirectFunctionSelection},
		{model: "GPT-4o", want: DirectFunctionSelection},
		{model: "qwen-plus", want: DirectFunctionSelection},
		{model: "llama3", want: StructuredReasoning},
		{model: "", want: StructuredReasoning},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, registry.StrategyFor(tt.model), tt.model)
	}

	var nilRegistry *CapabilityRegistry
	assert.Equal(t, StructuredReasoning, nilRegistry.StrategyFor("gpt-4o"))
	assert.Equal(t, "function_call", DirectFunctionSelection.String())
	assert.Equal(t, "react", StructuredReasoning.String())
}

func TestResolution_Text(t *testing.T) {
	const fallback = "the action failed"

	assert.Equal(t, "", Resolution{Kind: NoSelection}.Text(fallback))
	assert.Equal(t, "sunny", Resolution{Kind: Selected, Output: "sunny"}.Text(fallback))
	assert.Equal(t, "", Resolution{Kind: Selected}.Text(fallback))
	assert.Equal(t, fallback, Resolution{Kind: ExecutionFailed, Err: errors.New("x")}.Text(fallback))
}
