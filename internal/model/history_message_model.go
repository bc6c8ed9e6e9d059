package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryMessage struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DialogId  uuid.UUID      `gorm:"type:uuid;not null;index:idx_history_dialog_created,priority:1"`
	Role      string         `gorm:"type:varchar(20);not null"`
	Content   string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_history_dialog_created,priority:2"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (HistoryMessage) TableName() string {
	return "history_messages"
}
