// Package llm provides completion clients for SQL generation and
// presentation classification.
package llm

import "context"

// CompletionClient is the single "generate text from role-tagged messages"
// operation the rest of the system depends on. Use this interface for
// dependency injection to enable mocking in tests.
type CompletionClient interface {
	// Complete sends a system message and a user prompt and returns the
	// completion text.
	Complete(ctx context.Context, systemMessage, prompt string, maxTokens int, temperature float32) (string, error)

	// Model returns the configured model name.
	Model() string
}

// Ensure implementations satisfy CompletionClient at compile time.
var (
	_ CompletionClient = (*OpenAIClient)(nil)
	_ CompletionClient = (*AnthropicClient)(nil)
	_ CompletionClient = (*MockCompletionClient)(nil)
)
