package implementation

import (
	"context"
	"errors"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/mapper"
	"ai-agent-be/internal/model"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"

	"gorm.io/gorm"
)

type LlmConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LlmConfigMapper
}

func NewLlmConfigRepository(db *gorm.DB) contract.LlmConfigRepository {
	return &LlmConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewLlmConfigMapper(),
	}
}

func (r *LlmConfigRepositoryImpl) Create(ctx context.Context, cfg *entity.LlmConfig) error {
	m := r.mapper.ToModel(cfg)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*cfg = *r.mapper.ToEntity(m)
	return nil
}

func (r *LlmConfigRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LlmConfig, error) {
	var m model.LlmConfig
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
