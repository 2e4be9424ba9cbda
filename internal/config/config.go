package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"chat-with-pdf-be/internal/constant"

	"github.com/joho/godotenv"
)

var (
	ErrMissingRemoteConfig  = errors.New("remote vector store is not configured")
	ErrDefaultSessionSecret = errors.New("SESSION_SECRET is not set")
)

const defaultSessionSecret = "change-me"

type Config struct {
	App      AppConfig
	RemoteDB RemoteDBConfig
	Gateway  GatewayConfig
	Rag      RagConfig
	Keys     APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionTTLMinutes  int
	OtelEnabled        bool
}

// RemoteDBConfig holds the connection settings of the remote vector store.
// Port is fixed and the connection is always encrypted.
type RemoteDBConfig struct {
	Address  string
	User     string
	Password string
	DBName   string
	Port     int
	SSLMode  string
}

type GatewayConfig struct {
	Provider       string // "openai" or "ollama"
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	LLMModel       string
	Temperature    float32
	MaxTokens      int
}

type RagConfig struct {
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	HistoryMaxTurns int
	DefaultBackend  string
}

type APIKeys struct {
	SessionSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			SessionTTLMinutes:  getEnvAsInt("SESSION_TTL_MINUTES", 60),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
		},
		RemoteDB: RemoteDBConfig{
			Address:  getEnv("REMOTE_DB_ADDRESS", ""),
			User:     getEnv("REMOTE_DB_USER", ""),
			Password: getEnv("REMOTE_DB_PASSWORD", ""),
			DBName:   getEnv("REMOTE_DB_NAME", constant.RemoteDBName),
			Port:     constant.RemoteDBPort,
			SSLMode:  constant.RemoteSSLMode,
		},
		Gateway: GatewayConfig{
			Provider:       getEnv("GATEWAY_PROVIDER", constant.GatewayProviderOpenAI),
			BaseURL:        getEnv("GATEWAY_BASE_URL", ""),
			APIKey:         getEnv("GATEWAY_API_KEY", ""),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", constant.EmbeddingModel),
			LLMModel:       getEnv("LLM_MODEL", constant.LLMModel),
			Temperature:    getEnvAsFloat("LLM_TEMPERATURE", constant.LLMTemperature),
			MaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", constant.LLMMaxTokens),
		},
		Rag: RagConfig{
			ChunkSize:       constant.PDFChunkSize,
			ChunkOverlap:    constant.PDFChunkOverlap,
			TopK:            constant.RetrieverTopK,
			HistoryMaxTurns: getEnvAsInt("HISTORY_MAX_TURNS", constant.HistoryMaxTurns),
			DefaultBackend:  constant.DefaultBackend,
		},
		Keys: APIKeys{
			SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		},
	}
}

// Validate reports which of the required remote settings are missing.
func (c RemoteDBConfig) Validate() error {
	var missing []string
	if c.Address == "" {
		missing = append(missing, "REMOTE_DB_ADDRESS")
	}
	if c.User == "" {
		missing = append(missing, "REMOTE_DB_USER")
	}
	if c.Password == "" {
		missing = append(missing, "REMOTE_DB_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingRemoteConfig, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSessionSecret fails when the session tokens would be signed with
// the built-in development secret.
func (c *Config) ValidateSessionSecret() error {
	if c.Keys.SessionSecret == "" || c.Keys.SessionSecret == defaultSessionSecret {
		return ErrDefaultSessionSecret
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

func getEnvAsFloat(key string, fallback float32) float32 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 32); err == nil {
		return float32(value)
	}
	return fallback
}
