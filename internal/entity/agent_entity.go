package entity

import (
	"time"

	"github.com/google/uuid"
)

type Agent struct {
	Id            uuid.UUID
	Name          string
	Description   string
	SystemPrompt  string
	UserId        uuid.UUID
	LlmId         uuid.UUID
	UseEmbedding  bool
	ToolNames     []string
	McpServerIds  []uuid.UUID
	KnowledgeIds  []string
	HistoryWindow int
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
