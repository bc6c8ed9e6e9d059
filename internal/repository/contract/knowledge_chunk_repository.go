package contract

import (
	"context"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/specification"
)

// EmbeddingColumn names the vector column a similarity search runs against
type EmbeddingColumn string

const (
	SummaryEmbeddingColumn EmbeddingColumn = "summary_embedding"
	ContentEmbeddingColumn EmbeddingColumn = "content_embedding"
)

// ScoredKnowledgeChunk wraps KnowledgeChunk with its similarity score
type ScoredKnowledgeChunk struct {
	Chunk      *entity.KnowledgeChunk
	Similarity float64 // cosine similarity, 1.0 = identical
}

type KnowledgeChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error
	Delete(ctx context.Context, specs ...specification.Specification) error
	// FindAll loads chunk text only, embeddings are left empty
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, column EmbeddingColumn, scopes []string, limit int) ([]*ScoredKnowledgeChunk, error)
}
