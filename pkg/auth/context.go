// Package auth provides bearer-token session middleware and context helpers
// for extracting the authenticated session in downstream handlers.
package auth

import (
	"context"

	"github.com/sqlscribe/sqlscribe/pkg/apperrors"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

type contextKey string

const (
	// SessionKey is the context key holding the validated *models.Session.
	SessionKey contextKey = "session"
	// TokenKey is the context key holding the raw bearer token.
	TokenKey contextKey = "token"
)

// GetSession extracts the validated session from the context.
func GetSession(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil
}

// GetToken extracts the raw bearer token from the context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok && token != ""
}

// RequireSessionFromContext extracts the session and errors if absent.
// Use this in services that must not run unauthenticated.
func RequireSessionFromContext(ctx context.Context) (*models.Session, error) {
	session, ok := GetSession(ctx)
	if !ok {
		return nil, apperrors.ErrSessionInvalid
	}
	return session, nil
}
