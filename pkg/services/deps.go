package services

import (
	"context"

	"github.com/sqlscribe/sqlscribe/pkg/metabase"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

// BIClient is the subset of the Metabase client the services depend on.
// Defined here so tests can substitute a mock.
type BIClient interface {
	Login(ctx context.Context, username, password string) (string, error)
	CurrentUser(ctx context.Context, sessionID string) (*models.User, error)
	Logout(ctx context.Context, sessionID string) error
	DatabaseInfo(ctx context.Context, sessionID string) (*metabase.DatabaseInfo, error)
	DatabaseMetadata(ctx context.Context, sessionID string) (*metabase.DatabaseMetadata, error)
	RunQuery(ctx context.Context, sessionID, sqlQuery string) (*metabase.DatasetResult, error)
}

// Ensure the real client satisfies the interface at compile time.
var _ BIClient = (*metabase.Client)(nil)
