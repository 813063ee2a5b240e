package handlers

import (
	"context"
	"time"

	"github.com/sqlscribe/sqlscribe/pkg/models"
	"github.com/sqlscribe/sqlscribe/pkg/services"
)

type mockAuthService struct {
	LoginFunc          func(ctx context.Context, username, password string) (*services.LoginResult, error)
	LogoutFunc         func(ctx context.Context, token string) bool
	ValidateFunc       func(token string) (*models.Session, bool)
	ActiveSessionsFunc func() int
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return &services.LoginResult{
		Token:             "tok-1",
		User:              &models.User{ID: 1},
		ExpiresAt:         time.Now().Add(time.Hour),
		MetabaseSessionID: "mb-1",
	}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, token string) bool {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return true
}

func (m *mockAuthService) Validate(token string) (*models.Session, bool) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	return nil, false
}

func (m *mockAuthService) ActiveSessions() int {
	if m.ActiveSessionsFunc != nil {
		return m.ActiveSessionsFunc()
	}
	return 0
}

type mockSchemaService struct {
	FetchSchemaFunc   func(ctx context.Context, metabaseSessionID string) (*models.SchemaDescription, error)
	BuildSummaryFunc  func(schema *models.SchemaDescription) string
	FetchSampleFunc   func(ctx context.Context, metabaseSessionID, table string, limit int) []map[string]any
	RelationshipsFunc func(schema *models.SchemaDescription) []models.Relationship
}

func (m *mockSchemaService) FetchSchema(ctx context.Context, metabaseSessionID string) (*models.SchemaDescription, error) {
	if m.FetchSchemaFunc != nil {
		return m.FetchSchemaFunc(ctx, metabaseSessionID)
	}
	return &models.SchemaDescription{DatabaseName: "testdb", DatabaseType: "postgres"}, nil
}

func (m *mockSchemaService) BuildSummary(schema *models.SchemaDescription) string {
	if m.BuildSummaryFunc != nil {
		return m.BuildSummaryFunc(schema)
	}
	return "Database: testdb (postgres)"
}

func (m *mockSchemaService) FetchSample(ctx context.Context, metabaseSessionID, table string, limit int) []map[string]any {
	if m.FetchSampleFunc != nil {
		return m.FetchSampleFunc(ctx, metabaseSessionID, table, limit)
	}
	return []map[string]any{}
}

func (m *mockSchemaService) Relationships(schema *models.SchemaDescription) []models.Relationship {
	if m.RelationshipsFunc != nil {
		return m.RelationshipsFunc(schema)
	}
	return []models.Relationship{}
}

type mockSQLGenService struct {
	GenerateSQLFunc     func(ctx context.Context, question, schemaContext string, samples map[string][]map[string]any) (*models.GeneratedQuery, error)
	SuggestChartFunc    func(ctx context.Context, sqlQuery string, columns []string, sampleRows []map[string]any) models.ChartType
	SummarizeSchemaFunc func(ctx context.Context, schema *models.SchemaDescription) string
}

func (m *mockSQLGenService) GenerateSQL(ctx context.Context, question, schemaContext string, samples map[string][]map[string]any) (*models.GeneratedQuery, error) {
	if m.GenerateSQLFunc != nil {
		return m.GenerateSQLFunc(ctx, question, schemaContext, samples)
	}
	return &models.GeneratedQuery{Query: "SELECT 1", Explanation: "trivial"}, nil
}

func (m *mockSQLGenService) SuggestChart(ctx context.Context, sqlQuery string, columns []string, sampleRows []map[string]any) models.ChartType {
	if m.SuggestChartFunc != nil {
		return m.SuggestChartFunc(ctx, sqlQuery, columns, sampleRows)
	}
	return models.ChartTypeNone
}

func (m *mockSQLGenService) SummarizeSchema(ctx context.Context, schema *models.SchemaDescription) string {
	if m.SummarizeSchemaFunc != nil {
		return m.SummarizeSchemaFunc(ctx, schema)
	}
	return "Schema analysis not available"
}

type mockPipeline struct {
	RunFunc func(ctx context.Context, session *models.Session, question, extraContext string) *models.ChatResponse
}

func (m *mockPipeline) Run(ctx context.Context, session *models.Session, question, extraContext string) *models.ChatResponse {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, session, question, extraContext)
	}
	return &models.ChatResponse{QueryType: models.QueryTypeText, Timestamp: time.Now().UTC()}
}

// stubSessions validates a fixed token set for middleware wiring in tests.
type stubSessions struct {
	sessions map[string]*models.Session
}

func (s *stubSessions) Validate(token string) (*models.Session, bool) {
	session, ok := s.sessions[token]
	return session, ok
}

var (
	_ services.AuthService   = (*mockAuthService)(nil)
	_ services.SchemaService = (*mockSchemaService)(nil)
	_ services.SQLGenService = (*mockSQLGenService)(nil)
	_ services.QueryPipeline = (*mockPipeline)(nil)
)
