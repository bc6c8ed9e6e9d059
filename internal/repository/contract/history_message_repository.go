package contract

import (
	"context"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type HistoryMessageRepository interface {
	Create(ctx context.Context, msg *entity.HistoryMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.HistoryMessage, error)
	// FindRecent returns the newest limit messages of a dialog, oldest first
	FindRecent(ctx context.Context, dialogId uuid.UUID, limit int) ([]*entity.HistoryMessage, error)
}
