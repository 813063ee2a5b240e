// Package sql provides SQL validation utilities.
package sql

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMultipleStatements indicates the query contains multiple SQL statements.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

// deniedKeywords are mutating verbs that must never appear in executable SQL.
var deniedKeywords = []string{
	"drop", "delete", "update", "insert", "alter",
	"create", "truncate", "grant", "revoke",
}

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize strips a trailing semicolon and rejects SQL that
// contains multiple statements (any remaining semicolon outside string
// literals).
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)

	if sqlQuery == "" {
		return ValidationResult{NormalizedSQL: sqlQuery}
	}

	normalized := stripTrailingSemicolon(sqlQuery)

	if hasSemicolonOutsideStrings(normalized) {
		return ValidationResult{Error: ErrMultipleStatements}
	}

	return ValidationResult{NormalizedSQL: normalized}
}

// CheckReadOnly verifies that the SQL is a read-only statement: it must begin
// with SELECT (case-insensitive, after trimming) and must not contain any
// mutating keyword as a standalone token. Column names such as created_at,
// updated_at, or deleted_at are single tokens and therefore never mistaken
// for the keywords they contain.
//
// This is a syntactic allow/deny filter, not a parser. It is defense-in-depth
// on top of Metabase's own permissions, not a guarantee against crafted SQL.
func CheckReadOnly(sqlQuery string) (bool, string) {
	lower := strings.ToLower(strings.TrimSpace(sqlQuery))

	if !strings.HasPrefix(lower, "select") {
		return false, "only SELECT queries are allowed"
	}

	for _, token := range tokenize(lower) {
		for _, keyword := range deniedKeywords {
			if token == keyword {
				return false, fmt.Sprintf("dangerous SQL keyword detected: %s", keyword)
			}
		}
	}

	return true, "query is safe"
}

// tokenize splits SQL into identifier-like tokens. Letters, digits, and
// underscores bind into a single token, so "created_at" never yields "create".
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return false
		}
		if r >= '0' && r <= '9' {
			return false
		}
		return r != '_'
	})
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Handles both backslash escape (\') and SQL doubled quote ('');
			// a doubled quote exits and immediately re-enters on the next one.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

// stripTrailingSemicolon removes a trailing semicolon and surrounding whitespace.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}
