package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for sqlscribe.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (API keys,
// passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DevEndpoints enables the unauthenticated development query endpoint.
	// Only honored when Env is "local".
	DevEndpoints bool `yaml:"dev_endpoints" env:"DEV_ENDPOINTS" env-default:"false"`

	// Metabase connection configuration
	Metabase MetabaseConfig `yaml:"metabase"`

	// Completion service configuration
	Completion CompletionConfig `yaml:"completion"`

	// Session management configuration
	Session SessionConfig `yaml:"session"`

	// Sampling configuration for schema grounding context
	Sampling SamplingConfig `yaml:"sampling"`
}

// MetabaseConfig holds Metabase API connection settings.
type MetabaseConfig struct {
	// URL is the Metabase base URL, e.g. "https://metabase.example.com".
	URL string `yaml:"url" env:"METABASE_URL"`

	// DatabaseID identifies the connected database to introspect and query.
	DatabaseID int `yaml:"database_id" env:"METABASE_DATABASE_ID"`

	// Per-call timeout budgets. Metadata and dataset calls are heavier than
	// login/logout, so they get a larger budget.
	LoginTimeout    time.Duration `yaml:"login_timeout" env:"METABASE_LOGIN_TIMEOUT" env-default:"30s"`
	MetadataTimeout time.Duration `yaml:"metadata_timeout" env:"METABASE_METADATA_TIMEOUT" env-default:"60s"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"METABASE_QUERY_TIMEOUT" env-default:"60s"`
	LogoutTimeout   time.Duration `yaml:"logout_timeout" env:"METABASE_LOGOUT_TIMEOUT" env-default:"10s"`
}

// CompletionConfig holds LLM completion service settings.
type CompletionConfig struct {
	// Provider selects the completion backend: "openai" (or any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"COMPLETION_PROVIDER" env-default:"openai"`

	// Endpoint is the base URL for OpenAI-compatible providers.
	// Ignored by the anthropic provider.
	Endpoint string `yaml:"endpoint" env:"COMPLETION_ENDPOINT" env-default:"https://api.openai.com/v1"`

	Model       string  `yaml:"model" env:"COMPLETION_MODEL" env-default:"gpt-4o-mini"`
	APIKey      string  `yaml:"-" env:"COMPLETION_API_KEY"` // Secret - not in YAML
	MaxTokens   int     `yaml:"max_tokens" env:"COMPLETION_MAX_TOKENS" env-default:"1000"`
	Temperature float32 `yaml:"temperature" env:"COMPLETION_TEMPERATURE" env-default:"0.1"`

	Timeout time.Duration `yaml:"timeout" env:"COMPLETION_TIMEOUT" env-default:"60s"`
}

// SessionConfig holds session issuance settings.
type SessionConfig struct {
	// TTL is how long an issued session token stays valid.
	TTL time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
}

// SamplingConfig controls how much sample data is fetched for prompt context.
type SamplingConfig struct {
	// MaxTables is the number of tables to sample for SQL generation context.
	MaxTables int `yaml:"max_tables" env:"SAMPLING_MAX_TABLES" env-default:"3"`
	// RowsPerTable is the number of rows fetched per sampled table.
	RowsPerTable int `yaml:"rows_per_table" env:"SAMPLING_ROWS_PER_TABLE" env-default:"2"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. If config.yaml does not exist, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Metabase.URL = strings.TrimSuffix(cfg.Metabase.URL, "/")

	return cfg, nil
}

// validate checks that required settings are present.
func (c *Config) validate() error {
	var missing []string
	if c.Metabase.URL == "" {
		missing = append(missing, "METABASE_URL")
	}
	if c.Metabase.DatabaseID == 0 {
		missing = append(missing, "METABASE_DATABASE_ID")
	}
	if c.Completion.APIKey == "" && c.Completion.Provider != "openai" {
		// OpenAI-compatible local endpoints may run keyless; anthropic never does.
		missing = append(missing, "COMPLETION_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DevQueryEnabled reports whether the unauthenticated development query
// endpoint should be registered. It is never enabled outside local env.
func (c *Config) DevQueryEnabled() bool {
	return c.DevEndpoints && c.Env == "local"
}
