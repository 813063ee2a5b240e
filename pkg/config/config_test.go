package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("METABASE_URL", "https://metabase.example.com/")
	t.Setenv("METABASE_DATABASE_ID", "2")
	t.Setenv("COMPLETION_API_KEY", "sk-test")

	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "https://metabase.example.com", cfg.Metabase.URL, "trailing slash stripped")
	assert.Equal(t, 2, cfg.Metabase.DatabaseID)
	assert.Equal(t, "openai", cfg.Completion.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
	assert.Equal(t, 1000, cfg.Completion.MaxTokens)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.Sampling.MaxTables)
}

func TestLoad_MissingMetabaseURL(t *testing.T) {
	t.Setenv("METABASE_URL", "")
	t.Setenv("METABASE_DATABASE_ID", "2")

	_, err := Load("dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METABASE_URL")
}

func TestLoad_AnthropicRequiresAPIKey(t *testing.T) {
	t.Setenv("METABASE_URL", "https://metabase.example.com")
	t.Setenv("METABASE_DATABASE_ID", "2")
	t.Setenv("COMPLETION_PROVIDER", "anthropic")
	t.Setenv("COMPLETION_API_KEY", "")

	_, err := Load("dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPLETION_API_KEY")
}

func TestDevQueryEnabled(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		dev      bool
		expected bool
	}{
		{name: "enabled in local", env: "local", dev: true, expected: true},
		{name: "disabled in local", env: "local", dev: false, expected: false},
		{name: "never enabled in production", env: "production", dev: true, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Env: tt.env, DevEndpoints: tt.dev}
			assert.Equal(t, tt.expected, cfg.DevQueryEnabled())
		})
	}
}
