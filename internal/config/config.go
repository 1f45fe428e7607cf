package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Settings file
	UserConfigPath string

	// Model
	ModelProvider string
	OllamaURL     string
	ModelName     string
	ModelTimeout  time.Duration
	HistoryLimit  int

	// Gemini AI
	GeminiAPIKey string
	GeminiModel  string

	// Telegram
	TelegramBotToken string

	// Maintenance
	HistoryRetentionDays int
	RateLimitPerMinute   int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8000"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          getEnvOrDefault("DATABASE_URL", "whatsapp_history.db"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		JWTSecret:            getEnvOrDefault("JWT_SECRET", ""),
		UserConfigPath:       getEnvOrDefault("USER_CONFIG_PATH", "user_config.json"),
		ModelProvider:        getEnvOrDefault("MODEL_PROVIDER", "ollama"),
		OllamaURL:            getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
		ModelName:            getEnvOrDefault("MODEL_NAME", "neural-chat"),
		ModelTimeout:         getEnvAsDurationOrDefault("MODEL_TIMEOUT", 15*time.Second),
		HistoryLimit:         getEnvAsIntOrDefault("HISTORY_LIMIT", 3),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		TelegramBotToken:     getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
		HistoryRetentionDays: getEnvAsIntOrDefault("HISTORY_RETENTION_DAYS", 0),
		RateLimitPerMinute:   getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.ModelProvider == "gemini" {
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	}

	return cfg
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

// getEnvAsDurationOrDefault accepts Go durations ("15s") or plain seconds ("15").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
