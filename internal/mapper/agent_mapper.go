package mapper

import (
	"time"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AgentMapper struct{}

func NewAgentMapper() *AgentMapper {
	return &AgentMapper{}
}

func (m *AgentMapper) ToEntity(a *model.Agent) *entity.Agent {
	if a == nil {
		return nil
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	// Malformed server ids are skipped rather than failing the whole agent load
	mcpIds := make([]uuid.UUID, 0, len(a.McpServerIds))
	for _, raw := range a.McpServerIds {
		if id, err := uuid.Parse(raw); err == nil {
			mcpIds = append(mcpIds, id)
		}
	}

	return &entity.Agent{
		Id:            a.Id,
		Name:          a.Name,
		Description:   a.Description,
		SystemPrompt:  a.SystemPrompt,
		UserId:        a.UserId,
		LlmId:         a.LlmId,
		UseEmbedding:  a.UseEmbedding,
		ToolNames:     []string(a.ToolNames),
		McpServerIds:  mcpIds,
		KnowledgeIds:  []string(a.KnowledgeIds),
		HistoryWindow: a.HistoryWindow,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}

func (m *AgentMapper) ToModel(a *entity.Agent) *model.Agent {
	if a == nil {
		return nil
	}

	mcpIds := make([]string, len(a.McpServerIds))
	for i, id := range a.McpServerIds {
		mcpIds[i] = id.String()
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	return &model.Agent{
		Id:            a.Id,
		Name:          a.Name,
		Description:   a.Description,
		SystemPrompt:  a.SystemPrompt,
		UserId:        a.UserId,
		LlmId:         a.LlmId,
		UseEmbedding:  a.UseEmbedding,
		ToolNames:     datatypes.NewJSONSlice(a.ToolNames),
		McpServerIds:  datatypes.NewJSONSlice(mcpIds),
		KnowledgeIds:  datatypes.NewJSONSlice(a.KnowledgeIds),
		HistoryWindow: a.HistoryWindow,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}
