package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"alfredoptarigan/ats-analyzer/internal/logger"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Analysis AnalysisConfig
	Qdrant   QdrantConfig
	RabbitMQ RabbitMQConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	OriginURL string
	LogLevel  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LLMConfig selects the provider used for resume analysis. Only the key of
// the selected provider is required.
type LLMConfig struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	EmbedModel      string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
}

type StorageConfig struct {
	Driver      string
	UploadPath  string
	MaxFileSize int64
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

type WorkerConfig struct {
	Concurrency       int
	QueueSize         int
	PollInterval      time.Duration
	StaleAfter        time.Duration
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

type AnalysisConfig struct {
	MaxChars      int
	GuidanceLimit int
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Get().Info("No .env file found. Using environment and default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "3000"),
			Env:       getEnv("ENV", "development"),
			OriginURL: getEnv("ORIGIN_URL", "*"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ats_analyzer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel:      getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
			Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.7),
			MaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 5500),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", "120s"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3Region:    getEnv("S3_REGION", "auto"),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 3),
			QueueSize:         getEnvAsInt("WORKER_QUEUE_SIZE", 100),
			PollInterval:      getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
			StaleAfter:        getEnvAsDuration("WORKER_STALE_AFTER", "15m"),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
		Analysis: AnalysisConfig{
			MaxChars:      getEnvAsInt("ANALYSIS_MAX_CHARS", 40000),
			GuidanceLimit: getEnvAsInt("GUIDANCE_LIMIT", 3),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "ats_guidance"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "analysis_updates"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// Validate reports configuration that would make the service unusable at
// startup rather than on the first request.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.LLM.Provider)
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.LLM.Provider)
		}
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %s", c.LLM.Provider)
	}

	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for storage driver s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.Storage.Driver)
	}

	if c.Qdrant.URL != "" && c.LLM.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for guidance embeddings when QDRANT_URL is set")
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}

	return nil
}

func (c *Config) GuidanceEnabled() bool {
	return c.Qdrant.URL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
