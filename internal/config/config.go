package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// Counter store backend: "redis", "postgres" or "memory"
	KVBackend string

	// JWT / admin
	JWTSecret         string
	AdminPasswordHash string

	// Chat assistant
	ChatProvider     string // "openai" | "gemini"
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	GeminiAPIKey     string
	GeminiModel      string
	ChatMaxQuestions int
	ChatTemperature  float64
	ChatMaxTokens    int
	ChatTimeout      time.Duration
	PersonaFile      string

	// Background work
	QueueEnabled bool
	WorkerCount  int

	// SMTP
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	OwnerEmail string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		DatabaseURL:       mustGetEnv("DATABASE_URL"),
		MigrationsDir:     getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		KVBackend:         strings.ToLower(getEnvOrDefault("KV_BACKEND", "redis")),
		JWTSecret:         mustGetEnv("JWT_SECRET"),
		AdminPasswordHash: getEnvOrDefault("ADMIN_PASSWORD_HASH", ""),
		ChatProvider:      strings.ToLower(getEnvOrDefault("CHAT_PROVIDER", "openai")),
		OpenAIAPIKey:      getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
		GeminiAPIKey:      getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		ChatMaxQuestions:  getEnvAsIntOrDefault("CHAT_MAX_QUESTIONS", 10),
		ChatTemperature:   getEnvAsFloatOrDefault("CHAT_TEMPERATURE", 0.7),
		ChatMaxTokens:     getEnvAsIntOrDefault("CHAT_MAX_TOKENS", 500),
		ChatTimeout:       getEnvAsDurationOrDefault("CHAT_TIMEOUT", 30*time.Second),
		PersonaFile:       getEnvOrDefault("PERSONA_FILE", ""),
		QueueEnabled:      getEnvAsBoolOrDefault("QUEUE_ENABLED", true),
		WorkerCount:       getEnvAsIntOrDefault("WORKER_COUNT", 2),
		SMTPHost:          getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:          getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:          getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:          getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:          getEnvOrDefault("SMTP_FROM", "noreply@portfolio.local"),
		OwnerEmail:        getEnvOrDefault("OWNER_EMAIL", ""),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.NeedsRedis() {
		cfg.RedisURL = mustGetEnv("REDIS_URL")
	} else {
		cfg.RedisURL = getEnvOrDefault("REDIS_URL", "")
	}

	return cfg
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.KVBackend == "redis" || c.QueueEnabled
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsDurationOrDefault accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
