package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-agent-be/internal/config"
	"ai-agent-be/internal/controller"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/pkg/mailer"
	"ai-agent-be/internal/repository/memory"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/internal/service"
	"ai-agent-be/pkg/agent"
	"ai-agent-be/pkg/embedding"
	"ai-agent-be/pkg/embedding/jina"
	"ai-agent-be/pkg/events"
	"ai-agent-be/pkg/llm/factory"
	"ai-agent-be/pkg/mcp"
	pktNats "ai-agent-be/pkg/nats"
	"ai-agent-be/pkg/rag/search"
	"ai-agent-be/pkg/rerank"
	"ai-agent-be/pkg/rewrite"
	"ai-agent-be/pkg/tools"
	"ai-agent-be/pkg/tools/builtin"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// knowledgeDurable is the JetStream consumer name for ingestion events
const knowledgeDurable = "ai-agent-knowledge"

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController
	AdminController     controller.IAdminController
	AgentController     controller.IAgentController
	McpServerController controller.IMcpServerController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	IndexerService   service.IIndexerService
	KnowledgeService service.IKnowledgeService

	// NatsSubscriber is nil when the bus is unreachable
	NatsSubscriber *pktNats.Subscriber
	Logger         logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	toolLogger := logger.NewIsolatedLogger(cfg.App.ToolLogFilePath)

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var bus events.Publisher
	natsClient, err := pktNats.Connect(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS: %v (audit events and ingestion disabled)", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = natsClient.EnsureStream(ctx)
		cancel()
		if err != nil {
			log.Printf("[WARN] Failed to ensure NATS stream: %v", err)
			natsClient.Close()
		} else {
			bus = pktNats.NewPublisher(natsClient)
			c.NatsSubscriber = pktNats.NewSubscriber(natsClient, sysLogger)
			c.closers = append(c.closers, c.NatsSubscriber.Close, natsClient.Close)
		}
	}

	// 3. Retrieval
	embeddingProvider, err := newEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}

	bleveStore, err := search.NewBleveStore(cfg.Rag.CandidatesPerSource)
	if err != nil {
		return nil, fmt.Errorf("open lexical index: %w", err)
	}
	c.closers = append(c.closers, func() { _ = bleveStore.Close() })
	vectorStore := search.NewPgVectorStore(embeddingProvider, uowFactory, cfg.Rag.CandidatesPerSource)

	reranker, err := rerank.New(rerank.Config{
		Provider: cfg.Rerank.Provider,
		Model:    cfg.Rerank.Model,
		APIKey:   cfg.Rerank.APIKey,
		APIURL:   cfg.Rerank.APIURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init reranker: %w", err)
	}
	log.Printf("[INFO] Using Reranker: %s", cfg.Rerank.Provider)

	orchestrator := search.NewOrchestrator(
		search.NewDualRetriever(bleveStore, vectorStore),
		reranker,
		newRewriter(cfg, sysLogger, c),
		search.Config{
			MinScore:            cfg.Rag.MinScore,
			TopK:                cfg.Rag.TopK,
			CandidatesPerSource: cfg.Rag.CandidatesPerSource,
		},
		sysLogger,
	)

	// 4. Agent
	registry := tools.NewRegistry()
	toolCfg := builtin.Config{
		DeliveryAPIKey: cfg.Keys.Binderbyte,
		GoogleAPIKey:   cfg.Keys.GoogleSearch,
		GoogleCX:       cfg.Keys.GoogleSearchCX,
	}
	if cfg.SMTP.Host != "" {
		toolCfg.Mailer = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
	}
	if err := builtin.Register(registry, toolCfg); err != nil {
		return nil, fmt.Errorf("register builtin tools: %w", err)
	}
	log.Printf("[INFO] Local tools: %v", registry.Names())

	sessionFactory := agent.NewSessionFactory(
		uowFactory,
		registry,
		agent.NewCapabilityRegistry(cfg.Agent.FunctionCallModels...),
		orchestrator,
		cfg.Mcp.ConnectTimeout,
		sysLogger,
	)

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository(cfg.Agent.SessionTTL, sysLogger)
	c.closers = append(c.closers, sessionRepo.Flush)

	agentCfg := agent.DefaultConfig()
	if cfg.Agent.FallbackText != "" {
		agentCfg.FallbackText = cfg.Agent.FallbackText
	}
	if cfg.Agent.MaxIterations > 0 {
		agentCfg.MaxIterations = cfg.Agent.MaxIterations
	}
	if field := search.Field(cfg.Agent.KnowledgeField); field.Valid() {
		agentCfg.KnowledgeField = field
	}

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Rag.HistoryIndexTopic)
	indexerService := service.NewIndexerService(uowFactory, embeddingProvider, bleveStore, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		pubSub,
		cfg.Rag.HistoryIndexTopic,
		indexerService,
		sysLogger,
		watermillLogger,
	)
	knowledgeService := service.NewKnowledgeService(indexerService, orchestrator, sysLogger)
	chatService := service.NewChatService(
		uowFactory,
		sessionRepo,
		sessionFactory,
		publisherService,
		agentCfg,
		service.NewAuditSink(bus, toolLogger),
		sysLogger,
	)
	adminService := service.NewAdminService(sysLogger, toolLogger, bleveStore, sessionRepo)
	agentService := service.NewAgentService(uowFactory, registry, sessionRepo, sysLogger)
	mcpServerService := service.NewMcpServerService(
		uowFactory,
		mcp.NewProber(cfg.Mcp.ConnectTimeout, sysLogger),
		sessionRepo,
		sysLogger,
	)

	c.IndexerService = indexerService
	c.ConsumerService = consumerService
	c.KnowledgeService = knowledgeService

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService, cfg.App.JwtSecret, sysLogger)
	c.KnowledgeController = controller.NewKnowledgeController(knowledgeService, cfg.App.JwtSecret)
	c.AdminController = controller.NewAdminController(adminService, cfg.App.JwtSecret)
	c.AgentController = controller.NewAgentController(agentService, cfg.App.JwtSecret)
	c.McpServerController = controller.NewMcpServerController(mcpServerService, cfg.App.JwtSecret)

	return c, nil
}

// SubscribeKnowledge starts the durable ingestion consumer. It is a no-op
// without a bus connection.
func (c *Container) SubscribeKnowledge(ctx context.Context, subject string) error {
	if c.NatsSubscriber == nil {
		return nil
	}
	return c.NatsSubscriber.Subscribe(ctx, subject, knowledgeDurable, c.KnowledgeService.HandleEvent)
}

// Close releases resources in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel), nil
	case "jina":
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
		return jina.NewJinaProvider(cfg.Keys.Jina, ""), nil
	default:
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		provider, err := embedding.NewGeminiProvider(context.Background(), cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini embeddings: %w", err)
		}
		return provider, nil
	}
}

// newRewriter returns nil, meaning queries are used as typed, when no
// rewrite model is configured
func newRewriter(cfg *config.Config, sysLogger logger.ILogger, c *Container) rewrite.Rewriter {
	if cfg.Ai.LLMProvider == "" {
		return nil
	}
	provider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Keys.OpenAI,
	})
	if err != nil {
		sysLogger.Warn("Bootstrap", "Query rewriting disabled", map[string]interface{}{"error": err.Error()})
		return nil
	}
	var rewriter rewrite.Rewriter = rewrite.NewLLMRewriter(provider, cfg.Rag.RewriteVariants)

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		sysLogger.Warn("Bootstrap", "Redis unreachable, rewrite cache disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return rewriter
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return rewrite.NewCachedRewriter(rewriter, rdb, cfg.Rag.RewriteCacheTTL, sysLogger)
}
