package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LlmConfig struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Provider  string         `gorm:"type:varchar(50);not null"`
	Model     string         `gorm:"type:varchar(255);not null"`
	BaseURL   string         `gorm:"type:varchar(500)"`
	APIKey    string         `gorm:"type:varchar(500)"`
	Kind      string         `gorm:"type:varchar(20);not null;default:'chat'"` // chat | embedding
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (LlmConfig) TableName() string {
	return "llm_configs"
}
