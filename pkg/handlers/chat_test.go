package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/auth"
	"github.com/sqlscribe/sqlscribe/pkg/config"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

func chatTestMux(pipeline *mockPipeline, sqlgenSvc *mockSQLGenService, cfg *config.Config) *http.ServeMux {
	sessions := map[string]*models.Session{"tok-1": liveSession()}
	middleware := auth.NewMiddleware(&stubSessions{sessions: sessions}, zap.NewNop())
	handler := NewChatHandler(pipeline, sqlgenSvc, middleware, cfg, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func prodConfig() *config.Config {
	return &config.Config{Env: "production"}
}

func TestChatHandler_Query(t *testing.T) {
	pipeline := &mockPipeline{
		RunFunc: func(ctx context.Context, session *models.Session, question, extraContext string) *models.ChatResponse {
			assert.Equal(t, "alice", session.Username)
			assert.Equal(t, "top customers", question)
			assert.Equal(t, "last quarter", extraContext)
			return &models.ChatResponse{
				QueryType: models.QueryTypeTable,
				SQLQuery:  &models.GeneratedQuery{Query: "SELECT * FROM customers LIMIT 10"},
				Timestamp: time.Now().UTC(),
			}
		},
	}
	mux := chatTestMux(pipeline, &mockSQLGenService{}, prodConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/query",
		strings.NewReader(`{"message":"top customers","context":"last quarter"}`))
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"query_type":"table"`)
}

func TestChatHandler_Query_ErrorsAreHTTP200(t *testing.T) {
	pipeline := &mockPipeline{
		RunFunc: func(ctx context.Context, session *models.Session, question, extraContext string) *models.ChatResponse {
			return &models.ChatResponse{
				QueryType:    models.QueryTypeError,
				SQLQuery:     &models.GeneratedQuery{Query: "DELETE FROM orders"},
				ErrorMessage: "Unsafe SQL query: dangerous SQL keyword detected: delete",
				Timestamp:    time.Now().UTC(),
			}
		},
	}
	mux := chatTestMux(pipeline, &mockSQLGenService{}, prodConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/query",
		strings.NewReader(`{"message":"remove the orders"}`))
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"query_type":"error"`)
	assert.Contains(t, rec.Body.String(), "unsafe")
}

func TestChatHandler_Query_EmptyMessage(t *testing.T) {
	mux := chatTestMux(&mockPipeline{}, &mockSQLGenService{}, prodConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/query", strings.NewReader(`{"message":""}`))
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_Query_RequiresAuth(t *testing.T) {
	mux := chatTestMux(&mockPipeline{}, &mockSQLGenService{}, prodConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/query", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_DevQuery_OnlyRegisteredLocally(t *testing.T) {
	// Dev endpoints flagged on but env is production: not registered.
	cfg := &config.Config{Env: "production", DevEndpoints: true}
	mux := chatTestMux(&mockPipeline{}, &mockSQLGenService{}, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/dev-query", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatHandler_DevQuery_Local(t *testing.T) {
	sqlgenSvc := &mockSQLGenService{
		GenerateSQLFunc: func(ctx context.Context, question, schemaContext string, samples map[string][]map[string]any) (*models.GeneratedQuery, error) {
			assert.Contains(t, schemaContext, "customers table")
			return &models.GeneratedQuery{Query: "SELECT * FROM customers", Explanation: "lists customers", EstimatedRows: 1000}, nil
		},
	}
	cfg := &config.Config{Env: "local", DevEndpoints: true}
	mux := chatTestMux(&mockPipeline{}, sqlgenSvc, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/dev-query", strings.NewReader(`{"message":"show customers"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"generated_sql":"SELECT * FROM customers"`)
	assert.Contains(t, rec.Body.String(), `"estimated_rows":1000`)
}

func TestHealthHandler_Endpoints(t *testing.T) {
	cfg := &config.Config{Env: "local", Version: "1.2.3"}
	handler := NewHealthHandler(cfg, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, rec.Body.String(), `"service":"sqlscribe"`)
}
