package unitofwork

import (
	"context"
	"fmt"

	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // non-nil between Begin and Commit/Rollback
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) AgentRepository() contract.AgentRepository {
	return implementation.NewAgentRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LlmConfigRepository() contract.LlmConfigRepository {
	return implementation.NewLlmConfigRepository(u.getDB())
}

func (u *UnitOfWorkImpl) McpServerRepository() contract.McpServerRepository {
	return implementation.NewMcpServerRepository(u.getDB())
}

func (u *UnitOfWorkImpl) HistoryMessageRepository() contract.HistoryMessageRepository {
	return implementation.NewHistoryMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) KnowledgeChunkRepository() contract.KnowledgeChunkRepository {
	return implementation.NewKnowledgeChunkRepository(u.getDB())
}
