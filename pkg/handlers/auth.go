package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/apperrors"
	"github.com/sqlscribe/sqlscribe/pkg/auth"
	"github.com/sqlscribe/sqlscribe/pkg/middleware"
	"github.com/sqlscribe/sqlscribe/pkg/services"
)

// LoginRequest carries Metabase credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the successful login payload.
type LoginResponse struct {
	SessionToken      string    `json:"session_token"`
	User              any       `json:"user"`
	ExpiresAt         time.Time `json:"expires_at"`
	MetabaseSessionID string    `json:"metabase_session_id"`
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService services.AuthService
	middleware  *auth.Middleware
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthService, middleware *auth.Middleware, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		middleware:  middleware,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.middleware.RequireSession(h.Logout))
	mux.HandleFunc("GET /api/auth/me", h.middleware.RequireSession(h.Me))
	mux.HandleFunc("GET /api/auth/validate", h.Validate)
	mux.HandleFunc("GET /api/auth/status", h.Status)
}

// Login handles POST /api/auth/login requests. It authenticates against
// Metabase and issues a local session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Username and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			_ = ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		case errors.Is(err, apperrors.ErrUpstreamUnavailable):
			_ = ErrorResponse(w, http.StatusServiceUnavailable, "upstream_unavailable", "Metabase is unreachable")
		default:
			_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Login failed due to internal error")
		}
		return
	}

	response := LoginResponse{
		SessionToken:      result.Token,
		User:              result.User,
		ExpiresAt:         result.ExpiresAt,
		MetabaseSessionID: result.MetabaseSessionID,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode login response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout requests.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.GetToken(r.Context())
	success := h.authService.Logout(r.Context(), token)

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"success": success,
		"message": "Successfully logged out",
	}); err != nil {
		h.logger.Error("Failed to encode logout response", zap.Error(err))
	}
}

// Me handles GET /api/auth/me requests. Returns the identity bound to the
// session at login.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"id":        session.UserID,
		"username":  session.Username,
		"is_active": true,
	}); err != nil {
		h.logger.Error("Failed to encode me response", zap.Error(err))
	}
}

// Validate handles GET /api/auth/validate requests. Always responds 200 so
// the frontend can poll without triggering auth interceptors.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r)
	if !ok {
		_ = WriteJSON(w, http.StatusOK, map[string]any{
			"valid":  false,
			"detail": "Missing or invalid authorization header",
		})
		return
	}

	session, ok := h.authService.Validate(token)
	if !ok {
		_ = WriteJSON(w, http.StatusOK, map[string]any{
			"valid":  false,
			"detail": "Invalid or expired session",
		})
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"valid":      true,
		"username":   session.Username,
		"user_id":    session.UserID,
		"expires_at": session.ExpiresAt,
	})
}

// Status handles GET /api/auth/status requests. Purges expired sessions and
// reports the live count.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	active := h.authService.ActiveSessions()
	middleware.SetActiveSessions(active)

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"service":         "Authentication Service",
		"status":          "operational",
		"active_sessions": active,
	}); err != nil {
		h.logger.Error("Failed to encode status response", zap.Error(err))
	}
}
