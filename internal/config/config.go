package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Chat     ChatConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	NatsStream         string
	NatsSubjectPrefix  string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	// Hosted model used for analysis and chat
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Local model used for PII masking
	OllamaBaseURL string
	OllamaModel   string

	ChatProvider    string
	MaskingProvider string
}

type ChatConfig struct {
	// Character budget for prior turns in the prompt window
	HistoryBudgetChars int
	// Buffer between the upstream reader and the client writer
	StreamBufferSize int
	// Upper bound for one upstream call
	UpstreamTimeoutSeconds int
	// Watermill topic carrying document analysis jobs
	AnalyzeTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			NatsStream:         getEnv("NATS_STREAM_NAME", "SIGNAWARE_EVENTS"),
			NatsSubjectPrefix:  getEnv("NATS_SUBJECT_PREFIX", "signaware.events"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "SignAware"),
		},
		Ai: AIConfig{
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "deepseek-r1:8b"),
			ChatProvider:    getEnv("CHAT_PROVIDER", "openai"),
			MaskingProvider: getEnv("MASKING_PROVIDER", "ollama"),
		},
		Chat: ChatConfig{
			HistoryBudgetChars:     getEnvAsInt("CHAT_HISTORY_BUDGET_CHARS", 12000),
			StreamBufferSize:       getEnvAsInt("CHAT_STREAM_BUFFER_SIZE", 32),
			UpstreamTimeoutSeconds: getEnvAsInt("CHAT_UPSTREAM_TIMEOUT_SECONDS", 120),
			AnalyzeTopic:           getEnv("ANALYZE_DOCUMENT_TOPIC_NAME", "ANALYZE_DOCUMENT"),
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
