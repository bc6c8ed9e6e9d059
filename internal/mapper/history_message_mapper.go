package mapper

import (
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/model"
)

type HistoryMessageMapper struct{}

func NewHistoryMessageMapper() *HistoryMessageMapper {
	return &HistoryMessageMapper{}
}

func (m *HistoryMessageMapper) ToEntity(h *model.HistoryMessage) *entity.HistoryMessage {
	if h == nil {
		return nil
	}
	return &entity.HistoryMessage{
		Id:        h.Id,
		DialogId:  h.DialogId,
		Role:      h.Role,
		Content:   h.Content,
		CreatedAt: h.CreatedAt,
	}
}

func (m *HistoryMessageMapper) ToModel(h *entity.HistoryMessage) *model.HistoryMessage {
	if h == nil {
		return nil
	}
	return &model.HistoryMessage{
		Id:        h.Id,
		DialogId:  h.DialogId,
		Role:      h.Role,
		Content:   h.Content,
		CreatedAt: h.CreatedAt,
	}
}

func (m *HistoryMessageMapper) ToEntities(models []*model.HistoryMessage) []*entity.HistoryMessage {
	entities := make([]*entity.HistoryMessage, len(models))
	for i, h := range models {
		entities[i] = m.ToEntity(h)
	}
	return entities
}
