package llm

import (
	"fmt"
	"strings"

	"github.com/sqlscribe/sqlscribe/pkg/apperrors"
)

// ClassifyError maps raw provider errors onto the application taxonomy.
// Connection failures and timeouts become ErrUpstreamUnavailable so callers
// can surface a service-unavailable condition; everything else passes
// through wrapped.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"):
		return fmt.Errorf("%w: completion service: %v", apperrors.ErrUpstreamUnavailable, err)
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "invalid api key"):
		return fmt.Errorf("completion service authentication failed: %w", err)
	default:
		return fmt.Errorf("completion request: %w", err)
	}
}
