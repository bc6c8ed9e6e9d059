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

type McpServerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.McpServerMapper
}

func NewMcpServerRepository(db *gorm.DB) contract.McpServerRepository {
	return &McpServerRepositoryImpl{
		db:     db,
		mapper: mapper.NewMcpServerMapper(),
	}
}

func (r *McpServerRepositoryImpl) Create(ctx context.Context, server *entity.McpServer) error {
	m := r.mapper.ToModel(server)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*server = *r.mapper.ToEntity(m)
	return nil
}

func (r *McpServerRepositoryImpl) Update(ctx context.Context, server *entity.McpServer) error {
	m := r.mapper.ToModel(server)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*server = *r.mapper.ToEntity(m)
	return nil
}

func (r *McpServerRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.McpServer, error) {
	var m model.McpServer
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// Delete soft-deletes the server
func (r *McpServerRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.McpServer{}, "id = ?", id).Error
}

func (r *McpServerRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.McpServer, error) {
	var models []*model.McpServer
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.McpServer, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
