package entity

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeChunk struct {
	Id               uuid.UUID
	Scope            string
	FileId           string
	ChunkIndex       int
	Summary          string
	Content          string
	SummaryEmbedding []float32
	ContentEmbedding []float32
	CreatedAt        time.Time
}
