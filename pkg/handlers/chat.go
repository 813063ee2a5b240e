package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/auth"
	"github.com/sqlscribe/sqlscribe/pkg/config"
	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/models"
	"github.com/sqlscribe/sqlscribe/pkg/services"
)

// devSchemaContext is a fixed illustrative schema for the unauthenticated
// development endpoint, which has no Metabase session to introspect with.
const devSchemaContext = `Database Schema:
- customers table: id, name, email, registration_date
- orders table: id, customer_id, total_amount, order_date
- products table: id, name, price, category
- order_items table: order_id, product_id, quantity, price`

// ChatHandler handles natural-language query endpoints.
type ChatHandler struct {
	pipeline      services.QueryPipeline
	sqlgenService services.SQLGenService
	middleware    *auth.Middleware
	cfg           *config.Config
	logger        *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(pipeline services.QueryPipeline, sqlgenService services.SQLGenService, middleware *auth.Middleware, cfg *config.Config, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		pipeline:      pipeline,
		sqlgenService: sqlgenService,
		middleware:    middleware,
		cfg:           cfg,
		logger:        logger,
	}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
// The dev-query endpoint skips authentication and is only registered when
// dev endpoints are enabled in a local environment.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat/query", h.middleware.RequireSession(h.Query))
	if h.cfg.DevQueryEnabled() {
		h.logger.Warn("Registering unauthenticated dev-query endpoint")
		mux.HandleFunc("POST /api/chat/dev-query", h.DevQuery)
	}
}

// Query handles POST /api/chat/query requests. Pipeline failures surface as
// HTTP 200 responses with an error classification, never as HTTP errors.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if req.Message == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Message is required")
		return
	}

	session, _ := auth.GetSession(r.Context())
	response := h.pipeline.Run(r.Context(), session, req.Message, req.Context)

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode chat response", zap.Error(err))
	}
}

// DevQuery handles POST /api/chat/dev-query requests. It generates SQL
// against a fixed illustrative schema without executing it.
func (h *ChatHandler) DevQuery(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if req.Message == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Message is required")
		return
	}

	generated, err := h.sqlgenService.GenerateSQL(r.Context(), req.Message, devSchemaContext, nil)
	if err != nil {
		h.logger.Error("Dev query generation failed",
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "generation_error", "Failed to process query")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"user_question":  req.Message,
		"generated_sql":  generated.Query,
		"explanation":    generated.Explanation,
		"estimated_rows": generated.EstimatedRows,
	}); err != nil {
		h.logger.Error("Failed to encode dev query response", zap.Error(err))
	}
}
