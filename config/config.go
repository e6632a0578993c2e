package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Config holds every environment-driven setting for the gateway. Provider
// keys and base URLs are optional; the resolver decides per request which
// ones apply.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	SQLHost     string `env:"SQL_HOST" envDefault:"localhost"`
	SQLPort     string `env:"SQL_PORT" envDefault:"3306"`
	SQLUser     string `env:"SQL_USER"`
	SQLPassword string `env:"SQL_PASSWORD"`
	SQLDBName   string `env:"SQL_DBNAME" envDefault:"chatrelay"`

	AccessSecret  string `env:"ACCESS_SECRET"`
	EncryptionKey string `env:"ENCRYPTION_KEY" envDefault:"default-dev-secret-key-change-me"`

	// AIProvider applies when a catalog entry carries no provider tag.
	// AIBaseURL, when set, overrides every provider-specific base URL.
	AIProvider string `env:"AI_PROVIDER"`
	AIBaseURL  string `env:"AI_BASE_URL"`

	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiBaseURL      string `env:"GEMINI_BASE_URL"`
	ClaudeAPIKey       string `env:"CLAUDE_API_KEY"`
	ClaudeBaseURL      string `env:"CLAUDE_BASE_URL"`
	HuggingFaceAPIKey  string `env:"HUGGINGFACE_API_KEY"`
	HuggingFaceBaseURL string `env:"HUGGINGFACE_BASE_URL"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	return cfg, nil
}
