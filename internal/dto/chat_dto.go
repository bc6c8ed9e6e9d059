package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	AgentId  uuid.UUID `json:"agent_id" validate:"required"`
	DialogId uuid.UUID `json:"dialog_id" validate:"required"`
	Input    string    `json:"input" validate:"required,max=8000"`
}

// ChatFrame is one message on the SSE or websocket stream
type ChatFrame struct {
	Type    string `json:"type"` // "fragment" | "error" | "done"
	Id      string `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	ChatFrameFragment = "fragment"
	ChatFrameError    = "error"
	ChatFrameDone     = "done"
)

type HistoryMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryAppendedMessage is published on the in-process bus after a
// message is stored
type HistoryAppendedMessage struct {
	Id        uuid.UUID `json:"id"`
	DialogId  uuid.UUID `json:"dialog_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
