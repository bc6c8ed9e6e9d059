package rewrite

import (
	"ai-agent-be/pkg/llm"
	"context"
	"fmt"
	"strings"
)

// Rewriter expands a query into semantically equivalent variants.
// The result is never empty and its first element is the original query.
type Rewriter interface {
	Rewrite(ctx context.Context, query string) ([]string, error)
}

const rewritePrompt = `You improve search recall for a document retrieval system.
Rewrite the user question below into %d alternative search queries that keep the same meaning
but use different wording, synonyms or a more explicit phrasing.
Return one query per line with no numbering, bullets or commentary.

Question: %s`

// LLMRewriter asks a chat model for alternative phrasings
type LLMRewriter struct {
	provider llm.LLMProvider
	variants int
}

func NewLLMRewriter(provider llm.LLMProvider, variants int) *LLMRewriter {
	if variants <= 0 {
		variants = 3
	}
	return &LLMRewriter{provider: provider, variants: variants}
}

func (r *LLMRewriter) Rewrite(ctx context.Context, query string) ([]string, error) {
	out, err := r.provider.Generate(ctx, fmt.Sprintf(rewritePrompt, r.variants, query), llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("rewrite query: %w", err)
	}
	return parseVariants(query, out, r.variants), nil
}

// parseVariants puts the original first, then up to max distinct model lines
func parseVariants(original, raw string, max int) []string {
	variants := []string{original}
	seen := map[string]struct{}{normalize(original): {}}

	for _, line := range strings.Split(raw, "\n") {
		if len(variants) > max {
			break
		}
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		key := normalize(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		variants = append(variants, line)
	}
	return variants
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Identity returns the query unchanged
type Identity struct{}

func (Identity) Rewrite(_ context.Context, query string) ([]string, error) {
	return []string{query}, nil
}
