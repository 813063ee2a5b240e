package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/models"
)

// SessionValidator resolves a bearer token to a live session.
type SessionValidator interface {
	Validate(token string) (*models.Session, bool)
}

// Middleware provides HTTP authentication middleware.
// It is thin and delegates session validation to the auth service.
type Middleware struct {
	sessions SessionValidator
	logger   *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given session validator.
func NewMiddleware(sessions SessionValidator, logger *zap.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		logger:   logger,
	}
}

// RequireSession validates the Authorization bearer token and sets the
// session and token in context for downstream handlers.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			m.unauthorized(w, "Authentication required")
			return
		}

		session, ok := m.sessions.Validate(token)
		if !ok {
			m.logger.Debug("Rejected request with invalid session",
				zap.String("path", r.URL.Path))
			m.unauthorized(w, "Invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		ctx = context.WithValue(ctx, TokenKey, token)
		next(w, r.WithContext(ctx))
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
