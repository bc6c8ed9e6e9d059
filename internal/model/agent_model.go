package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Agent struct {
	Id            uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string                      `gorm:"type:varchar(255);not null"`
	Description   string                      `gorm:"type:text"`
	SystemPrompt  string                      `gorm:"type:text"`
	UserId        uuid.UUID                   `gorm:"type:uuid;not null;index"`
	LlmId         uuid.UUID                   `gorm:"type:uuid;not null"`
	UseEmbedding  bool                        `gorm:"default:false"`
	ToolNames     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	McpServerIds  datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	KnowledgeIds  datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	HistoryWindow int                         `gorm:"default:5"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt              `gorm:"index"`
}

func (Agent) TableName() string {
	return "agents"
}
