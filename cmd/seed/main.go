package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds one chat model and one agent so the chat endpoints can be tried
// without an admin UI. Prints the ids to use in requests.
func main() {
	provider := flag.String("provider", "openai", "model provider: openai, anthropic, ollama, deepseek, huggingface")
	model := flag.String("model", "gpt-4o-mini", "chat model id")
	baseURL := flag.String("base-url", "", "model endpoint override")
	toolNames := flag.String("tools", "get_weather,get_arxiv", "comma-separated local tools")
	knowledge := flag.String("knowledge", "", "comma-separated knowledge ids")
	flag.Parse()

	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Fatal("Error: begin transaction:", err)
	}
	defer uow.Rollback()

	llmCfg := &entity.LlmConfig{
		Id:       uuid.New(),
		Provider: *provider,
		Model:    *model,
		BaseURL:  *baseURL,
		APIKey:   os.Getenv(strings.ToUpper(*provider) + "_API_KEY"),
		Kind:     entity.LlmKindChat,
	}
	if err := uow.LlmConfigRepository().Create(ctx, llmCfg); err != nil {
		log.Fatal("Error: create llm config:", err)
	}

	agent := &entity.Agent{
		Id:            uuid.New(),
		Name:          "Demo Agent",
		Description:   "Seeded agent with local tools",
		SystemPrompt:  "You are a helpful assistant. Answer concisely.",
		UserId:        uuid.New(),
		LlmId:         llmCfg.Id,
		ToolNames:     splitList(*toolNames),
		KnowledgeIds:  splitList(*knowledge),
		HistoryWindow: 5,
	}
	if err := uow.AgentRepository().Create(ctx, agent); err != nil {
		log.Fatal("Error: create agent:", err)
	}

	if err := uow.Commit(); err != nil {
		log.Fatal("Error: commit:", err)
	}

	log.Printf("Created llm config %s (%s/%s)", llmCfg.Id, llmCfg.Provider, llmCfg.Model)
	log.Printf("Created agent %s; use it as agent_id with any new dialog_id", agent.Id)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
