package agent

import "strings"

// Strategy is how a session lets the model use tools
type Strategy int

const (
	// StructuredReasoning runs a thought/action/observation loop over the local tools
	StructuredReasoning Strategy = iota
	// DirectFunctionSelection asks the model to pick one local and one remote tool
	DirectFunctionSelection
)

func (s Strategy) String() string {
	switch s {
	case DirectFunctionSelection:
		return "function_call"
	default:
		return "react"
	}
}

// CapabilityRegistry lists the models that support native function calling.
// Every other model falls back to structured reasoning.
type CapabilityRegistry struct {
	functionCalling map[string]struct{}
}

func NewCapabilityRegistry(functionCallingModels ...string) *CapabilityRegistry {
	r := &CapabilityRegistry{functionCalling: make(map[string]struct{}, len(functionCallingModels))}
	for _, m := range functionCallingModels {
		m = normalizeModel(m)
		if m != "" {
			r.functionCalling[m] = struct{}{}
		}
	}
	return r
}

func (r *CapabilityRegistry) StrategyFor(model string) Strategy {
	if r == nil {
		return StructuredReasoning
	}
	if _, ok := r.functionCalling[normalizeModel(model)]; ok {
		return DirectFunctionSelection
	}
	return StructuredReasoning
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
