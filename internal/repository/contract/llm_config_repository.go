package contract

import (
	"context"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/specification"
)

type LlmConfigRepository interface {
	Create(ctx context.Context, cfg *entity.LlmConfig) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LlmConfig, error)
}
