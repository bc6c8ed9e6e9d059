package implementation

import (
	"context"
	"errors"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/mapper"
	"ai-agent-be/internal/model"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AgentMapper
}

func NewAgentRepository(db *gorm.DB) contract.AgentRepository {
	return &AgentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAgentMapper(),
	}
}

func (r *AgentRepositoryImpl) Create(ctx context.Context, agent *entity.Agent) error {
	m := r.mapper.ToModel(agent)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*agent = *r.mapper.ToEntity(m)
	return nil
}

func (r *AgentRepositoryImpl) Update(ctx context.Context, agent *entity.Agent) error {
	m := r.mapper.ToModel(agent)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*agent = *r.mapper.ToEntity(m)
	return nil
}

// Delete soft-deletes the agent
func (r *AgentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Agent{}, "id = ?", id).Error
}

func (r *AgentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error) {
	var m model.Agent
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AgentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error) {
	var models []*model.Agent
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Agent, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
