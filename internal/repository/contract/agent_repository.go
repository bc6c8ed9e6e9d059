package contract

import (
	"context"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *entity.Agent) error
	Update(ctx context.Context, agent *entity.Agent) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
