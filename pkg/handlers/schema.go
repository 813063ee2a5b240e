package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/auth"
	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/services"
)

const maxSampleLimit = 20

// SchemaHandler exposes database structure endpoints.
type SchemaHandler struct {
	schemaService services.SchemaService
	sqlgenService services.SQLGenService
	middleware    *auth.Middleware
	logger        *zap.Logger
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(schemaService services.SchemaService, sqlgenService services.SQLGenService, middleware *auth.Middleware, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
		sqlgenService: sqlgenService,
		middleware:    middleware,
		logger:        logger,
	}
}

// RegisterRoutes registers the schema handler's routes on the given mux.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schema/analyze", h.middleware.RequireSession(h.Analyze))
	mux.HandleFunc("GET /api/schema/tables", h.middleware.RequireSession(h.Tables))
	mux.HandleFunc("GET /api/schema/tables/{table}/sample", h.middleware.RequireSession(h.Sample))
}

// Analyze handles GET /api/schema/analyze requests. Returns the full schema,
// resolved relationships, the deterministic summary, and an LLM-generated
// prose analysis.
func (h *SchemaHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.GetSession(r.Context())

	schema, err := h.schemaService.FetchSchema(r.Context(), session.MetabaseSessionID)
	if err != nil {
		h.logger.Error("Schema analysis failed",
			zap.String("username", session.Username),
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "schema_error", "Failed to analyze database schema")
		return
	}

	summary := h.schemaService.BuildSummary(schema)
	relationships := h.schemaService.Relationships(schema)
	analysis := h.sqlgenService.SummarizeSchema(r.Context(), schema)

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"database_name":  schema.DatabaseName,
		"database_type":  schema.DatabaseType,
		"total_tables":   len(schema.Tables),
		"tables":         schema.Tables,
		"relationships":  relationships,
		"schema_summary": summary,
		"analysis":       analysis,
	}); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

// Tables handles GET /api/schema/tables requests.
func (h *SchemaHandler) Tables(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.GetSession(r.Context())

	schema, err := h.schemaService.FetchSchema(r.Context(), session.MetabaseSessionID)
	if err != nil {
		_ = ErrorResponse(w, http.StatusInternalServerError, "schema_error", "Failed to get tables")
		return
	}

	tables := make([]map[string]any, 0, len(schema.Tables))
	for _, table := range schema.Tables {
		tables = append(tables, map[string]any{
			"name":         table.Name,
			"display_name": table.DisplayName,
			"row_count":    table.RowCount,
			"column_count": len(table.Columns),
		})
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"database_name": schema.DatabaseName,
		"total_tables":  len(tables),
		"tables":        tables,
	}); err != nil {
		h.logger.Error("Failed to encode tables response", zap.Error(err))
	}
}

// Sample handles GET /api/schema/tables/{table}/sample requests.
func (h *SchemaHandler) Sample(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.GetSession(r.Context())
	table := r.PathValue("table")

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxSampleLimit {
		limit = maxSampleLimit
	}

	rows := h.schemaService.FetchSample(r.Context(), session.MetabaseSessionID, table, limit)

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"table_name":   table,
		"sample_count": len(rows),
		"data":         rows,
	}); err != nil {
		h.logger.Error("Failed to encode sample response", zap.Error(err))
	}
}
