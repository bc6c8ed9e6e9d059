package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RagConfig
	Rerank   RerankConfig
	Mcp      McpConfig
	Agent    AgentConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	ToolLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	Binderbyte     string
	GoogleGemini   string
	GoogleSearch   string
	GoogleSearchCX string
	Jina           string
	OpenAI         string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	// Rewrite model, used to expand knowledge queries
	LLMProvider string
	LLMModel    string
	LLMBaseURL  string
}

type RagConfig struct {
	MinScore            float64
	TopK                int
	CandidatesPerSource int
	RewriteVariants     int
	RewriteCacheTTL     time.Duration
	// KnowledgeTopic carries chunks announced by the ingestion pipeline
	KnowledgeTopic    string
	HistoryIndexTopic string
}

type RerankConfig struct {
	Provider string // "keyword", "cohere", "jina" or "generic"
	Model    string
	APIKey   string
	APIURL   string
}

type McpConfig struct {
	ConnectTimeout time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
	// SampleRatio applies to root spans only; children follow their parent
	SampleRatio float64
}

type AgentConfig struct {
	FunctionCallModels []string
	MaxIterations      int
	FallbackText       string
	SessionTTL         time.Duration
	// KnowledgeField is the chunk text matched first, "summary" or "content"
	KnowledgeField string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ToolLogFilePath:    getEnv("TOOL_LOG_FILE_PATH", "logs/tools.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogSQL:          getEnvAsBool("DB_LOG_SQL", false),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "AI Agent"),
		},
		Keys: APIKeys{
			Binderbyte:     getEnv("BINDERBYTE_API_KEY", ""),
			GoogleGemini:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GoogleSearch:   getEnv("GOOGLE_SEARCH_API_KEY", ""),
			GoogleSearchCX: getEnv("GOOGLE_SEARCH_CX", ""),
			Jina:           getEnv("JINA_API_KEY", ""),
			OpenAI:         getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		},
		Rag: RagConfig{
			MinScore:            getEnvAsFloat("RAG_MIN_SCORE", 0.5),
			TopK:                getEnvAsInt("RAG_TOP_K", 3),
			CandidatesPerSource: getEnvAsInt("RAG_CANDIDATES_PER_SOURCE", 5),
			RewriteVariants:     getEnvAsInt("RAG_REWRITE_VARIANTS", 3),
			RewriteCacheTTL:     getEnvAsDuration("RAG_REWRITE_CACHE_TTL", 24*time.Hour),
			KnowledgeTopic:      getEnv("RAG_KNOWLEDGE_SUBJECT", "events.knowledge.>"),
			HistoryIndexTopic:   getEnv("RAG_HISTORY_TOPIC", "HISTORY_APPENDED"),
		},
		Rerank: RerankConfig{
			Provider: getEnv("RERANKER_PROVIDER", "keyword"),
			Model:    getEnv("RERANKER_MODEL", ""),
			APIKey:   getEnv("RERANKER_API_KEY", ""),
			APIURL:   getEnv("RERANKER_API_URL", ""),
		},
		Mcp: McpConfig{
			ConnectTimeout: getEnvAsDuration("MCP_CONNECT_TIMEOUT", 10*time.Second),
		},
		Agent: AgentConfig{
			FunctionCallModels: getEnvAsList("AGENT_FUNCTION_CALL_MODELS", []string{
				"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini",
				"deepseek-chat", "qwen-plus", "qwen-max",
				"claude-sonnet-4-5", "claude-haiku-4-5",
			}),
			MaxIterations:  getEnvAsInt("AGENT_REACT_MAX_ITERATIONS", 5),
			FallbackText:   getEnv("AGENT_TOOL_FALLBACK_TEXT", ""),
			SessionTTL:     getEnvAsDuration("AGENT_SESSION_TTL", time.Hour),
			KnowledgeField: getEnv("AGENT_KNOWLEDGE_FIELD", "content"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, fallback []string) []string {
	strValue, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
