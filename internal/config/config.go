package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the motion-server configuration. Secrets come from Docker
// secret files with an environment-variable fallback for local runs.
type Config struct {
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field, loaded separately.
	DBPassword string

	// AI provider
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai"` // openai or ollama
	AIBaseURL    string        `envconfig:"AI_BASE_URL"`
	AIModel      string        `envconfig:"AI_MODEL" default:"gemini-2.0-flash"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	// Secret field, loaded separately.
	AIAPIKey string

	// Web analysis collaborator; empty URL disables web context entirely.
	WebAnalysisURL     string        `envconfig:"WEB_ANALYSIS_URL"`
	WebAnalysisTimeout time.Duration `envconfig:"WEB_ANALYSIS_TIMEOUT" default:"30s"`

	// Redis cache for web analysis; optional.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisCacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"24h"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Load reads configuration from environment variables and secret files.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var err error
	if cfg.DBPassword, err = readSecret("db_password", "DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.AIAPIKey, err = readSecret("ai_api_key", "AI_API_KEY"); err != nil {
		// ollama needs no key
		if cfg.AIClientType != "ollama" {
			return nil, err
		}
	}

	return &cfg, nil
}

// readSecret reads a Docker secret file, falling back to an environment
// variable for local development.
func readSecret(secretName, envName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	if secretBytes, err := os.ReadFile(filePath); err == nil {
		if secret := strings.TrimSpace(string(secretBytes)); secret != "" {
			return secret, nil
		}
	}
	if value := os.Getenv(envName); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret %s not found: no file at %s and %s is unset", secretName, filePath, envName)
}
