package services

import (
	"context"
	"fmt"

	"github.com/sqlscribe/sqlscribe/pkg/metabase"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

// mockBIClient is a function-field test double for BIClient.
type mockBIClient struct {
	LoginFunc            func(ctx context.Context, username, password string) (string, error)
	CurrentUserFunc      func(ctx context.Context, sessionID string) (*models.User, error)
	LogoutFunc           func(ctx context.Context, sessionID string) error
	DatabaseInfoFunc     func(ctx context.Context, sessionID string) (*metabase.DatabaseInfo, error)
	DatabaseMetadataFunc func(ctx context.Context, sessionID string) (*metabase.DatabaseMetadata, error)
	RunQueryFunc         func(ctx context.Context, sessionID, sql string) (*metabase.DatasetResult, error)

	RunQueryCalls []string
}

func (m *mockBIClient) Login(ctx context.Context, username, password string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return "mb-session-id", nil
}

func (m *mockBIClient) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, sessionID)
	}
	return &models.User{ID: 1, Email: "test@example.com", FirstName: "Test", LastName: "User"}, nil
}

func (m *mockBIClient) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockBIClient) DatabaseInfo(ctx context.Context, sessionID string) (*metabase.DatabaseInfo, error) {
	if m.DatabaseInfoFunc != nil {
		return m.DatabaseInfoFunc(ctx, sessionID)
	}
	return &metabase.DatabaseInfo{Name: "testdb", Engine: "postgres"}, nil
}

func (m *mockBIClient) DatabaseMetadata(ctx context.Context, sessionID string) (*metabase.DatabaseMetadata, error) {
	if m.DatabaseMetadataFunc != nil {
		return m.DatabaseMetadataFunc(ctx, sessionID)
	}
	return &metabase.DatabaseMetadata{}, nil
}

func (m *mockBIClient) RunQuery(ctx context.Context, sessionID, sql string) (*metabase.DatasetResult, error) {
	m.RunQueryCalls = append(m.RunQueryCalls, sql)
	if m.RunQueryFunc != nil {
		return m.RunQueryFunc(ctx, sessionID, sql)
	}
	return nil, fmt.Errorf("mockBIClient: RunQueryFunc not set")
}

var _ BIClient = (*mockBIClient)(nil)
