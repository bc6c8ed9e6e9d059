package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeChunk is one retrievable passage. Scope is the knowledge base id
// for ingested files and the dialog id for indexed conversation turns.
type KnowledgeChunk struct {
	Id               uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Scope            string           `gorm:"type:varchar(64);not null;index"`
	FileId           string           `gorm:"type:varchar(64);index"`
	ChunkIndex       int              `gorm:"default:0"`
	Summary          string           `gorm:"type:text"`
	Content          string           `gorm:"type:text;not null"`
	SummaryEmbedding *pgvector.Vector `gorm:"type:vector(768)"`
	ContentEmbedding pgvector.Vector  `gorm:"type:vector(768)"`
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
}

func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}
