package contract

import (
	"context"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type McpServerRepository interface {
	Create(ctx context.Context, server *entity.McpServer) error
	Update(ctx context.Context, server *entity.McpServer) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.McpServer, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.McpServer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
