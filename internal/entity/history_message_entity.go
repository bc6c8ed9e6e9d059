package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	HistoryRoleUser      = "user"
	HistoryRoleAssistant = "assistant"
	HistoryRoleSystem    = "system"
)

type HistoryMessage struct {
	Id        uuid.UUID
	DialogId  uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}
