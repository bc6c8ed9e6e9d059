package implementation

import (
	"context"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/mapper"
	"ai-agent-be/internal/model"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/scope"
	"ai-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.HistoryMessageMapper
}

func NewHistoryMessageRepository(db *gorm.DB) contract.HistoryMessageRepository {
	return &HistoryMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewHistoryMessageMapper(),
	}
}

func (r *HistoryMessageRepositoryImpl) Create(ctx context.Context, msg *entity.HistoryMessage) error {
	m := r.mapper.ToModel(msg)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*msg = *r.mapper.ToEntity(m)
	return nil
}

func (r *HistoryMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.HistoryMessage, error) {
	var models []*model.HistoryMessage
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *HistoryMessageRepositoryImpl) FindRecent(ctx context.Context, dialogId uuid.UUID, limit int) ([]*entity.HistoryMessage, error) {
	if limit <= 0 {
		return []*entity.HistoryMessage{}, nil
	}

	var models []*model.HistoryMessage
	err := r.db.WithContext(ctx).
		Scopes(specification.ByDialogID{DialogID: dialogId}.Apply, scope.OrderByCreatedDesc).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	// Newest-first from the query; callers want reading order
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return r.mapper.ToEntities(models), nil
}
