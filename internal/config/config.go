package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"doc-review-be/internal/apperror"

	"github.com/joho/godotenv"
)

const (
	VectorBackendMemory   = "memory"
	VectorBackendPgVector = "pgvector"
)

type Config struct {
	App       AppConfig
	Vector    VectorConfig
	Ai        AIConfig
	Keys      APIKeys
	Retrieval RetrievalConfig
	Document  DocumentConfig
	Cleanup   CleanupConfig
	SMTP      SMTPConfig
	Events    EventsConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogPath       string
	CorsAllowedOrigins string
	JWTSecret          string
	RedisURL           string
	NatsURL            string
}

type VectorConfig struct {
	Backend            string // "memory" or "pgvector"
	DSN                string
	AutoFallbackMemory bool
	EmbeddingDim       int
	SessionsCollection string
	IssuesCollection   string
	ChunksCollection   string
	TurnsCollection    string
}

type AIConfig struct {
	EmbeddingProvider string // "hash", "ollama", "gemini", "jina"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "none", "ollama", "huggingface", "gemini"
	LLMModel          string
	LLMBaseURL        string
	EmbeddingCacheTTL time.Duration
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
	Jina         string
}

type RetrievalConfig struct {
	URL        string
	TopK       int
	Timeout    time.Duration
	ChunkChars int
}

type DocumentConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type CleanupConfig struct {
	ArtifactsDir string
	EmailFrom    string
	EmailTo      string
	SendEmail    bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type EventsConfig struct {
	Topic string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogPath:       getEnv("AUDIT_LOG_PATH", "logs/review_events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			NatsURL:            getEnv("NATS_URL", ""),
		},
		Vector: VectorConfig{
			Backend:            strings.ToLower(getEnv("VECTOR_BACKEND", VectorBackendPgVector)),
			DSN:                getEnv("VECTOR_DSN", getEnv("DB_CONNECTION_STRING", "")),
			AutoFallbackMemory: getEnvAsBool("VECTOR_AUTO_FALLBACK_MEMORY", true),
			EmbeddingDim:       getEnvAsInt("EMBEDDING_DIM", 768),
			SessionsCollection: getEnv("COLLECTION_SESSIONS", "review_sessions"),
			IssuesCollection:   getEnv("COLLECTION_ISSUES", "nitpick_issues"),
			ChunksCollection:   getEnv("COLLECTION_CHUNKS", "document_chunks"),
			TurnsCollection:    getEnv("COLLECTION_TURNS", "conversation_turns"),
		},
		Ai: AIConfig{
			EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", "hash")),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "none")),
			LLMModel:          getEnv("LLM_MODEL", ""),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Retrieval: RetrievalConfig{
			URL:        getEnv("RETRIEVAL_URL", ""),
			TopK:       getEnvAsInt("RETRIEVAL_TOP_K", 3),
			Timeout:    getEnvAsDuration("RETRIEVAL_TIMEOUT", 1500*time.Millisecond),
			ChunkChars: getEnvAsInt("RETRIEVAL_CHUNK_CHARS", 500),
		},
		Document: DocumentConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE_CHARS", 3000),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP_CHARS", 400),
		},
		Cleanup: CleanupConfig{
			ArtifactsDir: getEnv("ARTIFACTS_DIR", "artifacts"),
			EmailFrom:    getEnv("CLEANUP_EMAIL_FROM", "investor@example.com"),
			EmailTo:      getEnv("CLEANUP_EMAIL_TO", "founders@example.com"),
			SendEmail:    getEnvAsBool("CLEANUP_SEND_EMAIL", false),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_EMAIL", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		Events: EventsConfig{
			Topic: getEnv("REVIEW_EVENTS_TOPIC", "review.events"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "doc-review-backend"),
		},
	}
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Vector.Backend {
	case VectorBackendMemory, VectorBackendPgVector:
	default:
		return apperror.Validation("unknown vector backend %q", c.Vector.Backend)
	}
	if c.Vector.EmbeddingDim <= 0 {
		return apperror.Validation("embedding dimension must be > 0, got %d", c.Vector.EmbeddingDim)
	}
	if c.Document.ChunkSize <= 0 {
		return apperror.Validation("chunk size must be > 0, got %d", c.Document.ChunkSize)
	}
	if c.Document.ChunkOverlap < 0 || c.Document.ChunkOverlap >= c.Document.ChunkSize {
		return apperror.Validation("chunk overlap must be >= 0 and < chunk size, got %d", c.Document.ChunkOverlap)
	}
	if c.Retrieval.TopK <= 0 {
		return apperror.Validation("retrieval top_k must be > 0, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.URL != "" && c.Retrieval.Timeout <= 0 {
		return apperror.Validation("retrieval timeout must be > 0 when RETRIEVAL_URL is set, got %s", c.Retrieval.Timeout)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("1500ms") or plain seconds ("1.5").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.ParseFloat(strValue, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
