// Package logging provides sanitization helpers for log output and
// user-facing error messages.
package logging

import (
	"regexp"
)

const (
	// MaxUpstreamErrorLength bounds upstream error text embedded in
	// user-facing messages.
	MaxUpstreamErrorLength = 200
	// MaxQueryLogLength is the maximum length of a SQL query to log.
	MaxQueryLogLength = 100
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// Matches password values in request bodies or connection strings.
	passwordPattern = regexp.MustCompile(`(?i)("?password"?\s*[=:]\s*)"?[^;&\s",}]+"?`)

	// Matches Metabase session headers. Session IDs are bearer-equivalent
	// credentials and must never reach the logs.
	metabaseSessionPattern = regexp.MustCompile(`(?i)(x-metabase-session\s*[=:]\s*)\S+`)

	// Matches API keys passed as query or header values.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[=:]\s*[A-Za-z0-9-_]{8,}`)
)

// SanitizeError sanitizes an error message that might contain credentials.
// Use this before logging any error from upstream HTTP calls.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize removes credential material from arbitrary text.
func Sanitize(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}"+RedactedText)
	s = metabaseSessionPattern.ReplaceAllString(s, "${1}"+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return s
}

// TruncateQuery shortens a SQL query for logging.
func TruncateQuery(query string) string {
	if len(query) <= MaxQueryLogLength {
		return query
	}
	return query[:MaxQueryLogLength] + "..."
}

// TruncateUpstreamError bounds upstream error text before it is embedded in
// a message returned to the caller.
func TruncateUpstreamError(msg string) string {
	msg = Sanitize(msg)
	if len(msg) <= MaxUpstreamErrorLength {
		return msg
	}
	return msg[:MaxUpstreamErrorLength] + "..."
}
