package implementation

import (
	"context"
	"fmt"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/mapper"
	"ai-agent-be/internal/model"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeChunkMapper
}

func NewKnowledgeChunkRepository(db *gorm.DB) contract.KnowledgeChunkRepository {
	return &KnowledgeChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeChunkMapper(),
	}
}

func (r *KnowledgeChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *KnowledgeChunkRepositoryImpl) Delete(ctx context.Context, specs ...specification.Specification) error {
	if len(specs) == 0 {
		return fmt.Errorf("refusing unfiltered delete of knowledge chunks")
	}
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	return query.Delete(&model.KnowledgeChunk{}).Error
}

func (r *KnowledgeChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	var models []*model.KnowledgeChunk
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.
		Select("id", "scope", "file_id", "chunk_index", "summary", "content", "created_at").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgeChunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore ranks chunks in scopes by cosine similarity on column.
// Rows without a vector in that column are skipped.
func (r *KnowledgeChunkRepositoryImpl) SearchSimilarWithScore(
	ctx context.Context,
	embedding []float32,
	column contract.EmbeddingColumn,
	scopes []string,
	limit int,
) ([]*contract.ScoredKnowledgeChunk, error) {
	switch column {
	case contract.SummaryEmbeddingColumn, contract.ContentEmbeddingColumn:
	default:
		return nil, fmt.Errorf("unknown embedding column %q", column)
	}
	if len(scopes) == 0 {
		return []*contract.ScoredKnowledgeChunk{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.KnowledgeChunk
		Similarity float64
	}
	var results []result

	// pgvector <=> is cosine distance, so 1 - distance is similarity
	queryVector := pgvector.NewVector(embedding)
	distance := fmt.Sprintf("%s <=> ?", column)

	err := r.db.WithContext(ctx).
		Table("knowledge_chunks").
		Select("knowledge_chunks.*, 1 - ("+distance+") AS similarity", queryVector).
		Where("scope IN ?", scopes).
		Where(fmt.Sprintf("%s IS NOT NULL", column)).
		Order(gorm.Expr(distance, queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredKnowledgeChunk, len(results))
	for i := range results {
		scored[i] = &contract.ScoredKnowledgeChunk{
			Chunk:      r.mapper.ToEntity(&results[i].KnowledgeChunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
