package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/mcp"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ServerProber connects to a tool server once and lists its tools
type ServerProber interface {
	Probe(ctx context.Context, server mcp.ServerConfig) ([]string, error)
}

type IMcpServerService interface {
	List(ctx context.Context, userId uuid.UUID) ([]*dto.McpServerResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateMcpServerRequest) (*dto.McpServerResponse, error)
	Update(ctx context.Context, userId, id uuid.UUID, req *dto.UpdateMcpServerRequest) (*dto.McpServerResponse, error)
	// Delete also removes the server from every agent that uses it
	Delete(ctx context.Context, userId, id uuid.UUID) error
}

type mcpServerService struct {
	uowFactory unitofwork.RepositoryFactory
	prober     ServerProber
	sessions   SessionEvictor
	logger     logger.ILogger
}

func NewMcpServerService(uowFactory unitofwork.RepositoryFactory, prober ServerProber, sessions SessionEvictor, log logger.ILogger) IMcpServerService {
	return &mcpServerService{
		uowFactory: uowFactory,
		prober:     prober,
		sessions:   sessions,
		logger:     log,
	}
}

func (s *mcpServerService) List(ctx context.Context, userId uuid.UUID) ([]*dto.McpServerResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	servers, err := uow.McpServerRepository().FindAll(ctx, ownedBy(userId, specification.OrderByName{})...)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.McpServerResponse, len(servers))
	for i, server := range servers {
		res[i] = toMcpServerResponse(server, nil)
	}
	return res, nil
}

// Create saves the server only after a successful connection
func (s *mcpServerService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateMcpServerRequest) (*dto.McpServerResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := s.checkName(ctx, uow, userId, uuid.Nil, req.Name); err != nil {
		return nil, err
	}

	server := &entity.McpServer{Id: uuid.New(), UserId: userId}
	applyMcpServerRequest(server, req)

	toolNames, err := s.probe(ctx, server)
	if err != nil {
		return nil, err
	}
	if err := uow.McpServerRepository().Create(ctx, server); err != nil {
		return nil, err
	}

	s.logger.Info("McpServerService", "MCP server registered", map[string]interface{}{
		"server_id": server.Id.String(),
		"name":      server.Name,
		"tools":     len(toolNames),
	})
	return toMcpServerResponse(server, toolNames), nil
}

// Update probes again only when the connection settings changed. Agents
// using the server drop their open dialogs either way.
func (s *mcpServerService) Update(ctx context.Context, userId, id uuid.UUID, req *dto.UpdateMcpServerRequest) (*dto.McpServerResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	server, err := s.find(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}
	create := (*dto.CreateMcpServerRequest)(req)
	if err := s.checkName(ctx, uow, server.UserId, server.Id, create.Name); err != nil {
		return nil, err
	}

	before := *server
	applyMcpServerRequest(server, create)

	var toolNames []string
	if connectionChanged(&before, server) {
		if toolNames, err = s.probe(ctx, server); err != nil {
			return nil, err
		}
	}
	if err := uow.McpServerRepository().Update(ctx, server); err != nil {
		return nil, err
	}

	agents, err := uow.AgentRepository().FindAll(ctx, specification.ReferencesMcpServer{ID: server.Id})
	if err != nil {
		return nil, err
	}
	for _, agent := range agents {
		s.sessions.DeleteAgent(agent.Id)
	}
	return toMcpServerResponse(server, toolNames), nil
}

func (s *mcpServerService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	server, err := s.find(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	agents, err := uow.AgentRepository().FindAll(ctx, specification.ReferencesMcpServer{ID: server.Id})
	if err != nil {
		return err
	}
	for _, agent := range agents {
		agent.McpServerIds = slices.DeleteFunc(agent.McpServerIds, func(ref uuid.UUID) bool { return ref == server.Id })
		if err := uow.AgentRepository().Update(ctx, agent); err != nil {
			return fmt.Errorf("detach server from agent %s: %w", agent.Id, err)
		}
	}
	if err := uow.McpServerRepository().Delete(ctx, server.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	for _, agent := range agents {
		s.sessions.DeleteAgent(agent.Id)
	}
	s.logger.Info("McpServerService", "MCP server removed", map[string]interface{}{
		"server_id": server.Id.String(),
		"agents":    len(agents),
	})
	return nil
}

func (s *mcpServerService) find(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.McpServer, error) {
	server, err := uow.McpServerRepository().FindOne(ctx, ownedBy(userId, specification.ByID{ID: id})...)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "MCP server not found")
	}
	return server, nil
}

func (s *mcpServerService) checkName(ctx context.Context, uow unitofwork.UnitOfWork, userId, selfId uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	specs := []specification.Specification{
		specification.ByName{Name: name},
		specification.ByUserID{UserID: userId},
	}
	if selfId != uuid.Nil {
		specs = append(specs, specification.ExcludeID{ID: selfId})
	}
	existing, err := uow.McpServerRepository().FindOne(ctx, specs...)
	if err != nil {
		return err
	}
	if existing != nil {
		return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("MCP server %q already exists", name))
	}
	return nil
}

func (s *mcpServerService) probe(ctx context.Context, server *entity.McpServer) ([]string, error) {
	toolNames, err := s.prober.Probe(ctx, mcp.ServerConfig{
		ID:      server.Id.String(),
		Name:    server.Name,
		Type:    server.Type,
		URL:     server.URL,
		Command: server.Command,
		Args:    server.Args,
		Env:     server.Env,
	})
	if err != nil {
		s.logger.Warn("McpServerService", "MCP server unreachable", map[string]interface{}{
			"name":  server.Name,
			"error": err.Error(),
		})
		return nil, fiber.NewError(fiber.StatusFailedDependency, "Could not connect to MCP server: "+err.Error())
	}
	return toolNames, nil
}

func connectionChanged(before, after *entity.McpServer) bool {
	if before.Type != after.Type || before.URL != after.URL || before.Command != after.Command {
		return true
	}
	if !slices.Equal(before.Args, after.Args) || len(before.Env) != len(after.Env) {
		return true
	}
	for k, v := range after.Env {
		if prev, ok := before.Env[k]; !ok || prev != v {
			return true
		}
	}
	return false
}

func applyMcpServerRequest(server *entity.McpServer, req *dto.CreateMcpServerRequest) {
	server.Name = strings.TrimSpace(req.Name)
	server.Type = req.Type
	server.URL = req.URL
	server.Command = req.Command
	server.Args = req.Args
	server.Env = req.Env
}

func toMcpServerResponse(s *entity.McpServer, toolNames []string) *dto.McpServerResponse {
	return &dto.McpServerResponse{
		Id:      s.Id,
		Name:    s.Name,
		Type:    s.Type,
		URL:     s.URL,
		Command: s.Command,
		Args:    s.Args,
		Env:     s.Env,
		Tools:   toolNames,
	}
}
