package mapper

import (
	"fmt"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/model"

	"gorm.io/datatypes"
)

type McpServerMapper struct{}

func NewMcpServerMapper() *McpServerMapper {
	return &McpServerMapper{}
}

func (m *McpServerMapper) ToEntity(s *model.McpServer) *entity.McpServer {
	if s == nil {
		return nil
	}

	env := make(map[string]string, len(s.Env))
	for k, v := range s.Env {
		env[k] = fmt.Sprint(v)
	}

	return &entity.McpServer{
		Id:      s.Id,
		Name:    s.Name,
		UserId:  s.UserId,
		Type:    s.Type,
		URL:     s.URL,
		Command: s.Command,
		Args:    []string(s.Args),
		Env:     env,
	}
}

func (m *McpServerMapper) ToModel(s *entity.McpServer) *model.McpServer {
	if s == nil {
		return nil
	}

	env := make(datatypes.JSONMap, len(s.Env))
	for k, v := range s.Env {
		env[k] = v
	}

	return &model.McpServer{
		Id:      s.Id,
		Name:    s.Name,
		UserId:  s.UserId,
		Type:    s.Type,
		URL:     s.URL,
		Command: s.Command,
		Args:    datatypes.NewJSONSlice(s.Args),
		Env:     env,
	}
}
