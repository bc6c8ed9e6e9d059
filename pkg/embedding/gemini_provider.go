package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
}

// defaultGeminiModel is used when no model is configured
const defaultGeminiModel = "text-embedding-004"

func NewGeminiProvider(ctx context.Context, apiKey, model string) (EmbeddingProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	cfg := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: genai.Ptr[int32](Dimensions),
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding error: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("gemini returned no embeddings")
	}

	values := resp.Embeddings[0].Values
	if len(values) != Dimensions {
		return nil, fmt.Errorf("%w: model %s returned %d, want %d", ErrDimensionMismatch, p.model, len(values), Dimensions)
	}

	// Reduced-width Gemini vectors are not unit length
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: normalizeVector(values),
		},
	}, nil
}
