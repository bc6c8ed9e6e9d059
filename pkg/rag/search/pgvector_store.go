package search

import (
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/embedding"
	"ai-agent-be/pkg/store"
	"context"
	"fmt"
)

// PgVectorStore embeds the query and runs cosine search over knowledge_chunks
type PgVectorStore struct {
	embedder embedding.EmbeddingProvider
	factory  unitofwork.RepositoryFactory
	limit    int
}

var _ VectorStore = (*PgVectorStore)(nil)

func NewPgVectorStore(embedder embedding.EmbeddingProvider, factory unitofwork.RepositoryFactory, limit int) *PgVectorStore {
	if limit <= 0 {
		limit = 10
	}
	return &PgVectorStore{embedder: embedder, factory: factory, limit: limit}
}

func (s *PgVectorStore) Search(ctx context.Context, text string, scope []string, field Field) ([]store.Document, error) {
	if len(scope) == 0 || text == "" {
		return []store.Document{}, nil
	}

	res, err := s.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	column := contract.ContentEmbeddingColumn
	if field == FieldSummary {
		column = contract.SummaryEmbeddingColumn
	}

	uow := s.factory.NewUnitOfWork(ctx)
	scored, err := uow.KnowledgeChunkRepository().SearchSimilarWithScore(ctx, res.Embedding.Values, column, scope, s.limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]store.Document, 0, len(scored))
	for _, sc := range scored {
		docs = append(docs, store.Document{
			ID:      sc.Chunk.Id.String(),
			Content: sc.Chunk.Content,
			Score:   sc.Similarity,
			Source:  store.SourceVector,
			Metadata: map[string]interface{}{
				"file_id": sc.Chunk.FileId,
				"scope":   sc.Chunk.Scope,
			},
		})
	}
	return docs, nil
}
