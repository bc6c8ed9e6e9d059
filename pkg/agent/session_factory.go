package agent

import (
	"context"
	"fmt"
	"time"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/llm/factory"
	"ai-agent-be/pkg/mcp"
	"ai-agent-be/pkg/rag/history"
	"ai-agent-be/pkg/tools"

	"github.com/google/uuid"
)

// SessionFactory prepares sessions from stored agent configuration
type SessionFactory struct {
	uowFactory     unitofwork.RepositoryFactory
	registry       *tools.Registry
	capabilities   *CapabilityRegistry
	knowledge      KnowledgeRetriever
	connectTimeout time.Duration
	logger         logger.ILogger

	newModel   func(cfg factory.ProviderConfig) (llm.LLMProvider, error)
	newGateway func() gateway
}

type gateway interface {
	RemoteTools
	Connect(ctx context.Context, servers []mcp.ServerConfig) error
}

// NewSessionFactory wires the shared collaborators. knowledge also serves
// history retrieval for agents that have an embedding model.
func NewSessionFactory(
	uowFactory unitofwork.RepositoryFactory,
	registry *tools.Registry,
	capabilities *CapabilityRegistry,
	knowledge KnowledgeRetriever,
	connectTimeout time.Duration,
	log logger.ILogger,
) *SessionFactory {
	f := &SessionFactory{
		uowFactory:     uowFactory,
		registry:       registry,
		capabilities:   capabilities,
		knowledge:      knowledge,
		connectTimeout: connectTimeout,
		logger:         log,
		newModel:       factory.NewLLMProvider,
	}
	f.newGateway = func() gateway { return mcp.NewGateway(f.connectTimeout, f.logger) }
	return f
}

// Open builds the session of one dialog with one agent. Remote tool
// servers are connected here, bounded by the connect timeout; if any of
// them fails the session is not created.
func (f *SessionFactory) Open(ctx context.Context, agentId, dialogId uuid.UUID) (*Session, error) {
	uow := f.uowFactory.NewUnitOfWork(ctx)

	agent, err := uow.AgentRepository().FindOne(ctx, specification.ByID{ID: agentId})
	if err != nil {
		return nil, fmt.Errorf("%w: load agent: %w", ErrSessionSetup, err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}

	llmCfg, err := f.loadLlm(ctx, uow, agent.LlmId, entity.LlmKindChat)
	if err != nil {
		return nil, err
	}
	model, err := f.newModel(factory.ProviderConfig{
		Provider: llmCfg.Provider,
		Model:    llmCfg.Model,
		BaseURL:  llmCfg.BaseURL,
		APIKey:   llmCfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionSetup, err)
	}

	local, missing := f.registry.Catalog(agent.ToolNames)
	if len(missing) > 0 {
		f.logger.Warn("SessionFactory", "agent references unknown tools", map[string]interface{}{
			"agent_id": agentId.String(),
			"tools":    missing,
		})
	}

	remote, err := f.connectRemote(ctx, uow, agent)
	if err != nil {
		return nil, err
	}

	// Every stored vector comes from the process embedder, so the agent
	// only chooses whether history is retrieved by relevance
	var historyRetriever history.Retriever
	if agent.UseEmbedding {
		historyRetriever = f.knowledge
	}

	session := &Session{
		AgentID:         agent.Id,
		DialogID:        dialogId,
		ModelName:       llmCfg.Model,
		Model:           model,
		Strategy:        f.capabilities.StrategyFor(llmCfg.Model),
		SystemPrompt:    agent.SystemPrompt,
		Local:           local,
		Remote:          remote,
		History:         history.NewBuilder(f.uowFactory, historyRetriever),
		HistoryTopK:     agent.HistoryWindow,
		SemanticHistory: historyRetriever != nil,
		Knowledge:       f.knowledge,
		KnowledgeScope:  agent.KnowledgeIds,
	}

	f.logger.Info("SessionFactory", "session opened", map[string]interface{}{
		"agent_id":     agentId.String(),
		"dialog_id":    dialogId.String(),
		"model":        llmCfg.Model,
		"strategy":     session.Strategy.String(),
		"local_tools":  local.Len(),
		"remote_tools": len(session.RemoteDescriptors()),
	})
	return session, nil
}

func (f *SessionFactory) loadLlm(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID, kind string) (*entity.LlmConfig, error) {
	cfg, err := uow.LlmConfigRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByLlmKind{Kind: kind},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s model: %w", ErrSessionSetup, kind, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s model %s not found", ErrSessionSetup, kind, id)
	}
	return cfg, nil
}

func (f *SessionFactory) connectRemote(ctx context.Context, uow unitofwork.UnitOfWork, agent *entity.Agent) (RemoteTools, error) {
	if len(agent.McpServerIds) == 0 {
		return nil, nil
	}

	servers, err := uow.McpServerRepository().FindAll(ctx, specification.ByIDs{IDs: agent.McpServerIds})
	if err != nil {
		return nil, fmt.Errorf("%w: load mcp servers: %w", ErrSessionSetup, err)
	}
	if len(servers) == 0 {
		return nil, nil
	}

	configs := make([]mcp.ServerConfig, len(servers))
	for i, s := range servers {
		configs[i] = mcp.ServerConfig{
			ID:      s.Id.String(),
			Name:    s.Name,
			Type:    s.Type,
			URL:     s.URL,
			Command: s.Command,
			Args:    s.Args,
			Env:     s.Env,
		}
	}

	gw := f.newGateway()
	if err := gw.Connect(ctx, configs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionSetup, err)
	}
	return gw, nil
}
