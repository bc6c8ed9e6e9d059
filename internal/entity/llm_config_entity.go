package entity

import (
	"github.com/google/uuid"
)

const (
	LlmKindChat      = "chat"
	LlmKindEmbedding = "embedding"
)

type LlmConfig struct {
	Id       uuid.UUID
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Kind     string
}
