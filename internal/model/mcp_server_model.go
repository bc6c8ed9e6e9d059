package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type McpServer struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string                      `gorm:"type:varchar(255);not null"`
	UserId    uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Type      string                      `gorm:"type:varchar(20);not null"` // sse | streamable | websocket | stdio
	URL       string                      `gorm:"type:varchar(500)"`
	Command   string                      `gorm:"type:varchar(500)"`
	Args      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Env       datatypes.JSONMap           `gorm:"type:jsonb"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt              `gorm:"index"`
}

func (McpServer) TableName() string {
	return "mcp_servers"
}
