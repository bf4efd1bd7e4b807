// Package config provides configuration for the backend.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the backend configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseDSN string

	// Provider settings file (runtime-mutable OpenAI settings)
	SettingsPath string

	// OpenAI
	OpenAIAPIKey string

	// Jira
	JiraInstanceURL string
	JiraAPIKey      string
	JiraUserEmail   string

	// Confluence
	ConfluenceURL      string
	ConfluenceAPIKey   string
	ConfluenceUsername string

	// WebSocket timeouts
	WSReadTimeout    time.Duration
	WSWriteTimeout   time.Duration
	WSPingInterval   time.Duration
	WSMaxMessageSize int64

	// Upstream timeout
	LLMTimeout time.Duration
}

// Load loads configuration from a .env file (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 8000),
		DatabaseDSN:        getEnv("DATABASE_DSN", "file:attila.db?cache=shared&mode=rwc"),
		SettingsPath:       getEnv("SETTINGS_PATH", "config/settings.json"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		JiraInstanceURL:    getEnv("JIRA_INSTANCE_URL", ""),
		JiraAPIKey:         getEnv("JIRA_API_KEY", ""),
		JiraUserEmail:      getEnv("JIRA_USER_EMAIL", ""),
		ConfluenceURL:      getEnv("CONFLUENCE_URL", ""),
		ConfluenceAPIKey:   getEnv("CONFLUENCE_API_KEY", ""),
		ConfluenceUsername: getEnv("CONFLUENCE_USERNAME", ""),
		WSReadTimeout:      time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		WSWriteTimeout:     time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		WSPingInterval:     time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WSMaxMessageSize:   int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LLMTimeout:         time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
