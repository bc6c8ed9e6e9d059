package mapper

import (
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type KnowledgeChunkMapper struct{}

func NewKnowledgeChunkMapper() *KnowledgeChunkMapper {
	return &KnowledgeChunkMapper{}
}

func (m *KnowledgeChunkMapper) ToEntity(c *model.KnowledgeChunk) *entity.KnowledgeChunk {
	if c == nil {
		return nil
	}

	var summaryEmbedding []float32
	if c.SummaryEmbedding != nil {
		summaryEmbedding = c.SummaryEmbedding.Slice()
	}

	return &entity.KnowledgeChunk{
		Id:               c.Id,
		Scope:            c.Scope,
		FileId:           c.FileId,
		ChunkIndex:       c.ChunkIndex,
		Summary:          c.Summary,
		Content:          c.Content,
		SummaryEmbedding: summaryEmbedding,
		ContentEmbedding: c.ContentEmbedding.Slice(),
		CreatedAt:        c.CreatedAt,
	}
}

func (m *KnowledgeChunkMapper) ToModel(c *entity.KnowledgeChunk) *model.KnowledgeChunk {
	if c == nil {
		return nil
	}

	var summaryEmbedding *pgvector.Vector
	if len(c.SummaryEmbedding) > 0 {
		v := pgvector.NewVector(c.SummaryEmbedding)
		summaryEmbedding = &v
	}

	return &model.KnowledgeChunk{
		Id:               c.Id,
		Scope:            c.Scope,
		FileId:           c.FileId,
		ChunkIndex:       c.ChunkIndex,
		Summary:          c.Summary,
		Content:          c.Content,
		SummaryEmbedding: summaryEmbedding,
		ContentEmbedding: pgvector.NewVector(c.ContentEmbedding),
		CreatedAt:        c.CreatedAt,
	}
}

func (m *KnowledgeChunkMapper) ToModels(chunks []*entity.KnowledgeChunk) []*model.KnowledgeChunk {
	models := make([]*model.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
