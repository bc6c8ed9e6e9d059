package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/tools"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultHistoryWindow = 5

// SessionEvictor drops every cached dialog session of an agent
type SessionEvictor interface {
	DeleteAgent(agentId uuid.UUID) int
}

// ToolLookup resolves local tool names against the process registry
type ToolLookup interface {
	Catalog(allow []string) (*tools.Catalog, []string)
}

type IAgentService interface {
	List(ctx context.Context, userId uuid.UUID) ([]*dto.AgentResponse, error)
	Search(ctx context.Context, userId uuid.UUID, name string) ([]*dto.AgentResponse, error)
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.AgentResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateAgentRequest) (*dto.AgentResponse, error)
	Update(ctx context.Context, userId, id uuid.UUID, req *dto.UpdateAgentRequest) (*dto.AgentResponse, error)
	Delete(ctx context.Context, userId, id uuid.UUID) error
}

type agentService struct {
	uowFactory unitofwork.RepositoryFactory
	tools      ToolLookup
	sessions   SessionEvictor
	logger     logger.ILogger
}

func NewAgentService(uowFactory unitofwork.RepositoryFactory, tools ToolLookup, sessions SessionEvictor, log logger.ILogger) IAgentService {
	return &agentService{
		uowFactory: uowFactory,
		tools:      tools,
		sessions:   sessions,
		logger:     log,
	}
}

// ownedBy scopes queries to the caller. A nil user id means auth is
// disabled and every row is visible.
func ownedBy(userId uuid.UUID, specs ...specification.Specification) []specification.Specification {
	if userId != uuid.Nil {
		specs = append(specs, specification.ByUserID{UserID: userId})
	}
	return specs
}

func (s *agentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.AgentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agents, err := uow.AgentRepository().FindAll(ctx, ownedBy(userId, specification.OrderByName{})...)
	if err != nil {
		return nil, err
	}
	return toAgentResponses(agents), nil
}

func (s *agentService) Search(ctx context.Context, userId uuid.UUID, name string) ([]*dto.AgentResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.List(ctx, userId)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	agents, err := uow.AgentRepository().FindAll(ctx, ownedBy(userId,
		specification.ByNameContains{Term: name},
		specification.OrderByName{},
	)...)
	if err != nil {
		return nil, err
	}
	return toAgentResponses(agents), nil
}

func (s *agentService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.AgentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agent, err := s.find(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}
	return toAgentResponse(agent), nil
}

func (s *agentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateAgentRequest) (*dto.AgentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := s.checkConfig(ctx, uow, userId, uuid.Nil, req); err != nil {
		return nil, err
	}

	agent := &entity.Agent{
		Id:        uuid.New(),
		UserId:    userId,
		CreatedAt: time.Now(),
	}
	applyAgentRequest(agent, req)

	if err := uow.AgentRepository().Create(ctx, agent); err != nil {
		return nil, err
	}

	s.logger.Info("AgentService", "Agent created", map[string]interface{}{
		"agent_id": agent.Id.String(),
		"name":     agent.Name,
	})
	return toAgentResponse(agent), nil
}

// Update replaces the configuration. Open dialogs were built from the old
// configuration, so they are closed and reopen on their next turn.
func (s *agentService) Update(ctx context.Context, userId, id uuid.UUID, req *dto.UpdateAgentRequest) (*dto.AgentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agent, err := s.find(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	create := (*dto.CreateAgentRequest)(req)
	if err := s.checkConfig(ctx, uow, agent.UserId, agent.Id, create); err != nil {
		return nil, err
	}
	applyAgentRequest(agent, create)

	if err := uow.AgentRepository().Update(ctx, agent); err != nil {
		return nil, err
	}
	s.evict(agent.Id)
	return toAgentResponse(agent), nil
}

func (s *agentService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agent, err := s.find(ctx, uow, userId, id)
	if err != nil {
		return err
	}
	if err := uow.AgentRepository().Delete(ctx, agent.Id); err != nil {
		return err
	}
	s.evict(agent.Id)
	return nil
}

func (s *agentService) find(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.Agent, error) {
	agent, err := uow.AgentRepository().FindOne(ctx, ownedBy(userId, specification.ByID{ID: id})...)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Agent not found")
	}
	return agent, nil
}

// checkConfig rejects a configuration that could never open a session
func (s *agentService) checkConfig(ctx context.Context, uow unitofwork.UnitOfWork, userId, selfId uuid.UUID, req *dto.CreateAgentRequest) error {
	name := strings.TrimSpace(req.Name)
	nameSpecs := []specification.Specification{
		specification.ByName{Name: name},
		specification.ByUserID{UserID: userId},
	}
	if selfId != uuid.Nil {
		nameSpecs = append(nameSpecs, specification.ExcludeID{ID: selfId})
	}
	existing, err := uow.AgentRepository().FindOne(ctx, nameSpecs...)
	if err != nil {
		return err
	}
	if existing != nil {
		return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Agent %q already exists", name))
	}

	llm, err := uow.LlmConfigRepository().FindOne(ctx, specification.ByID{ID: req.LlmId})
	if err != nil {
		return err
	}
	if llm == nil {
		return fiber.NewError(fiber.StatusBadRequest, "llm_id does not exist")
	}
	if llm.Kind == entity.LlmKindEmbedding {
		return fiber.NewError(fiber.StatusBadRequest, "llm_id must be a chat model")
	}

	if _, missing := s.tools.Catalog(req.ToolNames); len(missing) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown tools: "+strings.Join(missing, ", "))
	}

	if len(req.McpServerIds) > 0 {
		ids := uniqueIds(req.McpServerIds)
		servers, err := uow.McpServerRepository().FindAll(ctx, ownedBy(userId, specification.ByIDs{IDs: ids})...)
		if err != nil {
			return err
		}
		if len(servers) != len(ids) {
			return fiber.NewError(fiber.StatusBadRequest, "mcp_server_ids references an unknown server")
		}
	}
	return nil
}

func (s *agentService) evict(agentId uuid.UUID) {
	if n := s.sessions.DeleteAgent(agentId); n > 0 {
		s.logger.Info("AgentService", "Closed open sessions", map[string]interface{}{
			"agent_id": agentId.String(),
			"sessions": n,
		})
	}
}

func applyAgentRequest(agent *entity.Agent, req *dto.CreateAgentRequest) {
	agent.Name = strings.TrimSpace(req.Name)
	agent.Description = req.Description
	agent.SystemPrompt = req.SystemPrompt
	agent.LlmId = req.LlmId
	agent.UseEmbedding = req.UseEmbedding
	agent.ToolNames = req.ToolNames
	agent.McpServerIds = uniqueIds(req.McpServerIds)
	agent.KnowledgeIds = req.KnowledgeIds
	agent.HistoryWindow = req.HistoryWindow
	if agent.HistoryWindow == 0 {
		agent.HistoryWindow = defaultHistoryWindow
	}
	now := time.Now()
	agent.UpdatedAt = &now
}

func uniqueIds(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toAgentResponse(a *entity.Agent) *dto.AgentResponse {
	return &dto.AgentResponse{
		Id:            a.Id,
		Name:          a.Name,
		Description:   a.Description,
		SystemPrompt:  a.SystemPrompt,
		LlmId:         a.LlmId,
		UseEmbedding:  a.UseEmbedding,
		ToolNames:     a.ToolNames,
		McpServerIds:  a.McpServerIds,
		KnowledgeIds:  a.KnowledgeIds,
		HistoryWindow: a.HistoryWindow,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toAgentResponses(agents []*entity.Agent) []*dto.AgentResponse {
	res := make([]*dto.AgentResponse, len(agents))
	for i, a := range agents {
		res[i] = toAgentResponse(a)
	}
	return res
}
