// Package metabase provides a client for the Metabase HTTP API.
package metabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/apperrors"
	"github.com/sqlscribe/sqlscribe/pkg/config"
	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

// sessionHeader carries the Metabase session id on authenticated calls.
const sessionHeader = "X-Metabase-Session"

// Client provides access to the Metabase API.
type Client struct {
	baseURL    string
	databaseID int
	timeouts   timeouts
	httpClient *http.Client
	logger     *zap.Logger
}

type timeouts struct {
	login    time.Duration
	metadata time.Duration
	query    time.Duration
	logout   time.Duration
}

// NewClient creates a new Metabase client. Timeout budgets are applied
// per call, not on the shared http.Client.
func NewClient(cfg *config.MetabaseConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.URL,
		databaseID: cfg.DatabaseID,
		timeouts: timeouts{
			login:    cfg.LoginTimeout,
			metadata: cfg.MetadataTimeout,
			query:    cfg.QueryTimeout,
			logout:   cfg.LogoutTimeout,
		},
		httpClient: &http.Client{},
		logger:     logger.Named("metabase"),
	}
}

// Login authenticates against Metabase and returns its session id.
// Invalid credentials, upstream unavailability, and unexpected responses map
// to distinct errors so callers can surface them separately.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.login)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Metabase login request failed", zap.String("error", logging.SanitizeError(err)))
		return "", fmt.Errorf("%w: %s", apperrors.ErrUpstreamUnavailable, "unable to reach Metabase")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("Metabase rejected credentials", zap.Int("status", resp.StatusCode))
		return "", apperrors.ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: metabase login returned HTTP %d", apperrors.ErrInternal, resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("%w: decode login response: %v", apperrors.ErrInternal, err)
	}
	if session.ID == "" {
		return "", fmt.Errorf("%w: metabase login response missing session id", apperrors.ErrInternal)
	}

	return session.ID, nil
}

// CurrentUser fetches identity information for the given Metabase session.
func (c *Client) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.login)
	defer cancel()

	var user userResponse
	if err := c.getJSON(ctx, "/api/user/current", sessionID, &user); err != nil {
		return nil, err
	}

	return &models.User{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
	}, nil
}

// Logout deletes the Metabase session. Best-effort: callers are expected to
// proceed with local cleanup regardless of the outcome.
func (c *Client) Logout(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.logout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/session", nil)
	if err != nil {
		return fmt.Errorf("create logout request: %w", err)
	}
	req.Header.Set(sessionHeader, sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("metabase logout returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// DatabaseInfo fetches name and engine of the configured database.
func (c *Client) DatabaseInfo(ctx context.Context, sessionID string) (*DatabaseInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.metadata)
	defer cancel()

	var info DatabaseInfo
	path := fmt.Sprintf("/api/database/%d", c.databaseID)
	if err := c.getJSON(ctx, path, sessionID, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DatabaseMetadata fetches table and field metadata of the configured database.
func (c *Client) DatabaseMetadata(ctx context.Context, sessionID string) (*DatabaseMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.metadata)
	defer cancel()

	var metadata DatabaseMetadata
	path := fmt.Sprintf("/api/database/%d/metadata", c.databaseID)
	if err := c.getJSON(ctx, path, sessionID, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// RunQuery executes native SQL through the dataset endpoint. Both HTTP 200
// and 202 count as non-error; an explicit error field or status "failed" is
// a query-level failure regardless of HTTP status.
func (c *Client) RunQuery(ctx context.Context, sessionID, sqlQuery string) (*DatasetResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.query)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"database": c.databaseID,
		"type":     "native",
		"native":   map[string]string{"query": sqlQuery},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal dataset request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/dataset", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create dataset request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, sessionID)

	c.logger.Debug("Executing query", zap.String("sql", logging.TruncateQuery(sqlQuery)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Metabase dataset request failed", zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUpstreamUnavailable, "unable to reach Metabase")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: HTTP %d: %s",
			apperrors.ErrQueryExecution, resp.StatusCode, logging.TruncateUpstreamError(string(raw)))
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var dataset datasetResponse
	if err := decoder.Decode(&dataset); err != nil {
		return nil, fmt.Errorf("%w: decode dataset response: %v", apperrors.ErrInternal, err)
	}

	c.logger.Info("Metabase dataset response",
		zap.String("status", dataset.Status),
		zap.Int("http_status", resp.StatusCode))

	if dataset.Status == "failed" || dataset.Error != "" {
		msg := dataset.Error
		if msg == "" {
			msg = "unknown SQL error"
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrQueryExecution, logging.TruncateUpstreamError(msg))
	}

	cols := dataset.Data.Cols
	if len(cols) == 0 {
		cols = dataset.Data.ResultsMetadata.Columns
	}

	columns := make([]string, 0, len(cols))
	for _, col := range cols {
		name := col.DisplayName
		if name == "" {
			name = col.Name
		}
		if name == "" {
			name = "unknown"
		}
		columns = append(columns, name)
	}

	return &DatasetResult{
		Columns:     columns,
		Rows:        dataset.Data.Rows,
		RunningTime: dataset.RunningTime,
	}, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
// Non-200 responses map to ErrSchemaRetrieval carrying the upstream status;
// transport failures map to ErrUpstreamUnavailable.
func (c *Client) getJSON(ctx context.Context, path, sessionID string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(sessionHeader, sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Metabase request failed",
			zap.String("path", path),
			zap.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("%w: %s", apperrors.ErrUpstreamUnavailable, "unable to reach Metabase")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned HTTP %d", apperrors.ErrSchemaRetrieval, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperrors.ErrInternal, path, err)
	}
	return nil
}
