package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token             string
	User              *models.User
	ExpiresAt         time.Time
	MetabaseSessionID string
}

// AuthService authenticates callers against Metabase and manages the local
// session table.
type AuthService interface {
	// Login authenticates with Metabase, fetches the user's identity, and
	// issues a local session token. Errors distinguish invalid credentials,
	// upstream unavailability, and internal failures.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// Logout removes the local session and makes a best-effort attempt to
	// drop the Metabase session. External failure never prevents local
	// cleanup. Returns true if a live session existed.
	Logout(ctx context.Context, token string) bool

	// Validate resolves a token to its session, if live.
	Validate(token string) (*models.Session, bool)

	// ActiveSessions purges expired entries and returns the live count.
	ActiveSessions() int
}

type authService struct {
	client BIClient
	store  SessionStore
	logger *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(client BIClient, store SessionStore, logger *zap.Logger) AuthService {
	return &authService{
		client: client,
		store:  store,
		logger: logger.Named("auth"),
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	metabaseSessionID, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("Metabase authentication failed",
			zap.String("username", username),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	user, err := s.client.CurrentUser(ctx, metabaseSessionID)
	if err != nil {
		s.logger.Error("Failed to fetch user info after login",
			zap.String("username", username),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	token, session := s.store.Create(username, metabaseSessionID, user.ID)

	s.logger.Info("User authenticated",
		zap.String("username", username),
		zap.Int("user_id", user.ID),
		zap.Time("expires_at", session.ExpiresAt))

	return &LoginResult{
		Token:             token,
		User:              user,
		ExpiresAt:         session.ExpiresAt,
		MetabaseSessionID: metabaseSessionID,
	}, nil
}

func (s *authService) Logout(ctx context.Context, token string) bool {
	session, ok := s.store.Validate(token)
	if ok {
		if err := s.client.Logout(ctx, session.MetabaseSessionID); err != nil {
			// Best-effort only. Local cleanup proceeds regardless.
			s.logger.Warn("Metabase logout failed",
				zap.String("username", session.Username),
				zap.String("error", logging.SanitizeError(err)))
		}
	}

	removed := s.store.Invalidate(token)
	if removed && ok {
		s.logger.Info("User logged out", zap.String("username", session.Username))
	}
	return removed || ok
}

func (s *authService) Validate(token string) (*models.Session, bool) {
	return s.store.Validate(token)
}

func (s *authService) ActiveSessions() int {
	if purged := s.store.PurgeExpired(); purged > 0 {
		s.logger.Info("Purged expired sessions", zap.Int("count", purged))
	}
	return s.store.CountActive()
}

var _ AuthService = (*authService)(nil)
