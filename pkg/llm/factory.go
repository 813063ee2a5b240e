package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/config"
)

// NewFromConfig creates the completion client named by the configuration.
// "openai" covers any OpenAI-compatible endpoint; "anthropic" uses the
// Anthropic Messages API.
func NewFromConfig(cfg *config.CompletionConfig, logger *zap.Logger) (CompletionClient, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg.Endpoint, cfg.Model, cfg.APIKey, logger)
	case "anthropic":
		return NewAnthropicClient(cfg.Model, cfg.APIKey, logger)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
