package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAgentRequest struct {
	Name          string      `json:"name" validate:"required,max=255"`
	Description   string      `json:"description" validate:"max=2000"`
	SystemPrompt  string      `json:"system_prompt"`
	LlmId         uuid.UUID   `json:"llm_id" validate:"required"`
	UseEmbedding  bool        `json:"use_embedding"`
	ToolNames     []string    `json:"tool_names"`
	McpServerIds  []uuid.UUID `json:"mcp_server_ids"`
	KnowledgeIds  []string    `json:"knowledge_ids"`
	HistoryWindow int         `json:"history_window" validate:"omitempty,min=1,max=50"`
}

// UpdateAgentRequest replaces the whole configuration
type UpdateAgentRequest CreateAgentRequest

type AgentResponse struct {
	Id            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	SystemPrompt  string      `json:"system_prompt"`
	LlmId         uuid.UUID   `json:"llm_id"`
	UseEmbedding  bool        `json:"use_embedding"`
	ToolNames     []string    `json:"tool_names"`
	McpServerIds  []uuid.UUID `json:"mcp_server_ids"`
	KnowledgeIds  []string    `json:"knowledge_ids"`
	HistoryWindow int         `json:"history_window"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     *time.Time  `json:"updated_at,omitempty"`
}
