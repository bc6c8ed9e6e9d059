package unitofwork

import (
	"context"

	"ai-agent-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AgentRepository() contract.AgentRepository
	LlmConfigRepository() contract.LlmConfigRepository
	McpServerRepository() contract.McpServerRepository
	HistoryMessageRepository() contract.HistoryMessageRepository
	KnowledgeChunkRepository() contract.KnowledgeChunkRepository
}
