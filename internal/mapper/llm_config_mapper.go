package mapper

import (
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/model"
)

type LlmConfigMapper struct{}

func NewLlmConfigMapper() *LlmConfigMapper {
	return &LlmConfigMapper{}
}

func (m *LlmConfigMapper) ToEntity(c *model.LlmConfig) *entity.LlmConfig {
	if c == nil {
		return nil
	}
	return &entity.LlmConfig{
		Id:       c.Id,
		Provider: c.Provider,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
		APIKey:   c.APIKey,
		Kind:     c.Kind,
	}
}

func (m *LlmConfigMapper) ToModel(c *entity.LlmConfig) *model.LlmConfig {
	if c == nil {
		return nil
	}
	return &model.LlmConfig{
		Id:       c.Id,
		Provider: c.Provider,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
		APIKey:   c.APIKey,
		Kind:     c.Kind,
	}
}
