package embedding

import (
	"context"
	"errors"
)

// Task types understood by providers that distinguish query and document vectors
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Dimensions is the width of the knowledge_chunks vector columns
const Dimensions = 768

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}
