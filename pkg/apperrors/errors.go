package apperrors

import "errors"

var (
	// ErrInvalidCredentials indicates Metabase rejected the supplied credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionInvalid indicates an unknown or expired session token.
	ErrSessionInvalid = errors.New("invalid or expired session")
	// ErrUpstreamUnavailable indicates a network failure or timeout talking to
	// Metabase or the completion service.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	// ErrSchemaRetrieval indicates Metabase returned a non-success response
	// during schema introspection.
	ErrSchemaRetrieval = errors.New("schema retrieval failed")
	// ErrUnsafeQuery indicates generated SQL failed the read-only safety check.
	ErrUnsafeQuery = errors.New("unsafe query")
	// ErrQueryExecution indicates Metabase reported a SQL-level failure.
	ErrQueryExecution = errors.New("query execution failed")
	// ErrInternal covers anything unanticipated.
	ErrInternal = errors.New("internal error")
)
