package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/config"
	"github.com/sqlscribe/sqlscribe/pkg/llm"
	"github.com/sqlscribe/sqlscribe/pkg/metabase"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

func pipelineSession() *models.Session {
	return &models.Session{
		Username:          "alice",
		MetabaseSessionID: "mb-session",
		UserID:            1,
		ExpiresAt:         time.Now().Add(time.Hour),
	}
}

// pipelineCompletion answers SQL generation with the given statement and
// chart suggestion prompts with the given chart token.
func pipelineCompletion(sqlStatement, chartToken string) *llm.MockCompletionClient {
	mock := llm.NewMockCompletionClient()
	mock.CompleteFunc = func(ctx context.Context, systemMessage, prompt string, maxTokens int, temperature float32) (string, error) {
		if strings.Contains(systemMessage, "SQL query generator") {
			return "SQL:\n```sql\n" + sqlStatement + "\n```\nEXPLANATION:\nDoes the thing.", nil
		}
		return chartToken, nil
	}
	return mock
}

func newPipelineForTest(client *mockBIClient, completion *llm.MockCompletionClient) QueryPipeline {
	logger := zap.NewNop()
	cfg := &config.CompletionConfig{MaxTokens: 1000, Temperature: 0.1}
	return NewQueryPipeline(
		NewSchemaService(client, logger),
		NewSQLGenService(completion, cfg, logger),
		NewPresentationService(logger),
		client,
		config.SamplingConfig{MaxTables: 3, RowsPerTable: 2},
		logger,
	)
}

func regionDataset() *metabase.DatasetResult {
	return &metabase.DatasetResult{
		Columns:     []string{"region", "total"},
		Rows:        [][]any{{"east", float64(15)}, {"west", float64(7)}},
		RunningTime: 12,
	}
}

func TestQueryPipeline_Run_ChartResponse(t *testing.T) {
	client := &mockBIClient{
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			if strings.HasPrefix(sqlText, "SELECT * FROM") {
				// best-effort sampling
				return &metabase.DatasetResult{}, nil
			}
			return regionDataset(), nil
		},
	}
	pipeline := newPipelineForTest(client, pipelineCompletion("SELECT region, sum(total) FROM orders GROUP BY region", "bar"))

	resp := pipeline.Run(context.Background(), pipelineSession(), "revenue by region?", "")
	require.NotNil(t, resp)

	assert.Equal(t, models.QueryTypeChart, resp.QueryType)
	assert.Equal(t, "SELECT region, sum(total) FROM orders GROUP BY region", resp.SQLQuery.Query)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 2, resp.Result.RowCount)
	assert.Equal(t, float64(12), resp.Result.ExecutionTimeMs)

	require.NotNil(t, resp.Chart)
	assert.Equal(t, models.ChartTypeBar, resp.Chart.ChartType)
	assert.Equal(t, []string{"east", "west"}, resp.Chart.Data["labels"])

	require.NotNil(t, resp.Table, "table artifact accompanies every successful run")
	assert.Equal(t, "Found 2 results. Generated bar chart for visualization.", resp.TextResponse)
	assert.Equal(t, time.UTC, resp.Timestamp.Location())
	assert.GreaterOrEqual(t, resp.ProcessingTimeMs, float64(0))
}

func TestQueryPipeline_Run_TableResponse(t *testing.T) {
	client := &mockBIClient{
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			if strings.HasPrefix(sqlText, "SELECT * FROM") {
				return &metabase.DatasetResult{}, nil
			}
			return regionDataset(), nil
		},
	}
	pipeline := newPipelineForTest(client, pipelineCompletion("SELECT region, total FROM orders", "table"))

	resp := pipeline.Run(context.Background(), pipelineSession(), "list orders", "")

	assert.Equal(t, models.QueryTypeTable, resp.QueryType)
	assert.Nil(t, resp.Chart)
	require.NotNil(t, resp.Table)
	assert.Equal(t, "Found 2 results. Data is best displayed in table format.", resp.TextResponse)
	assert.Empty(t, resp.ErrorMessage)
}

func TestQueryPipeline_Run_UnsafeSQL(t *testing.T) {
	client := &mockBIClient{
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			return &metabase.DatasetResult{}, nil
		},
	}
	pipeline := newPipelineForTest(client, pipelineCompletion("DELETE FROM orders WHERE id = 1", "table"))

	resp := pipeline.Run(context.Background(), pipelineSession(), "remove order 1", "")

	assert.Equal(t, models.QueryTypeError, resp.QueryType)
	assert.Contains(t, strings.ToLower(resp.ErrorMessage), "unsafe")
	// The rejected SQL is echoed verbatim for transparency, never executed.
	assert.Equal(t, "DELETE FROM orders WHERE id = 1", resp.SQLQuery.Query)
	assert.Nil(t, resp.Result)
	assert.Nil(t, resp.Chart)
	assert.Nil(t, resp.Table)

	for _, q := range client.RunQueryCalls {
		assert.True(t, strings.HasPrefix(q, "SELECT * FROM"), "only sampling queries may run, got %q", q)
	}
}

func TestQueryPipeline_Run_MultiStatementRejected(t *testing.T) {
	client := &mockBIClient{
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			return &metabase.DatasetResult{}, nil
		},
	}
	pipeline := newPipelineForTest(client, pipelineCompletion("SELECT 1; SELECT 2", "table"))

	resp := pipeline.Run(context.Background(), pipelineSession(), "two things", "")
	assert.Equal(t, models.QueryTypeError, resp.QueryType)
	assert.Contains(t, strings.ToLower(resp.ErrorMessage), "unsafe")
}

func TestQueryPipeline_Run_ExecutionFailurePreservesSQL(t *testing.T) {
	client := &mockBIClient{
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			if strings.HasPrefix(sqlText, "SELECT * FROM") {
				return &metabase.DatasetResult{}, nil
			}
			return nil, assert.AnError
		},
	}
	pipeline := newPipelineForTest(client, pipelineCompletion("SELECT missing_col FROM orders", "table"))

	resp := pipeline.Run(context.Background(), pipelineSession(), "broken", "")

	assert.Equal(t, models.QueryTypeError, resp.QueryType)
	assert.Contains(t, resp.ErrorMessage, "SQL execution failed")
	assert.Equal(t, "SELECT missing_col FROM orders", resp.SQLQuery.Query)
	assert.Contains(t, resp.TextResponse, "failed to execute")
	assert.Nil(t, resp.Result)
}

func TestQueryPipeline_Run_SchemaFailure(t *testing.T) {
	client := &mockBIClient{
		DatabaseInfoFunc: func(ctx context.Context, sessionID string) (*metabase.DatabaseInfo, error) {
			return nil, assert.AnError
		},
	}
	pipeline := newPipelineForTest(client, pipelineCompletion("SELECT 1", "table"))

	resp := pipeline.Run(context.Background(), pipelineSession(), "anything", "")

	assert.Equal(t, models.QueryTypeError, resp.QueryType)
	assert.Contains(t, resp.ErrorMessage, "schema")
	require.NotNil(t, resp.SQLQuery)
	assert.Empty(t, resp.SQLQuery.Query)
	assert.Equal(t, "Query failed", resp.SQLQuery.Explanation)
}

func TestQueryPipeline_Run_GenerationFailure(t *testing.T) {
	client := &mockBIClient{
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			return &metabase.DatasetResult{}, nil
		},
	}
	mock := llm.NewMockCompletionClient()
	mock.CompleteFunc = func(ctx context.Context, systemMessage, prompt string, maxTokens int, temperature float32) (string, error) {
		return "", assert.AnError
	}
	pipeline := newPipelineForTest(client, mock)

	resp := pipeline.Run(context.Background(), pipelineSession(), "anything", "")
	assert.Equal(t, models.QueryTypeError, resp.QueryType)
	assert.Contains(t, resp.ErrorMessage, "Failed to generate SQL query")
}

func TestQueryPipeline_Run_SamplingIsBestEffort(t *testing.T) {
	client := &mockBIClient{
		DatabaseMetadataFunc: func(ctx context.Context, sessionID string) (*metabase.DatabaseMetadata, error) {
			return ordersMetadata(), nil
		},
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			if strings.HasPrefix(sqlText, "SELECT * FROM") {
				return nil, assert.AnError // sampling always fails
			}
			return regionDataset(), nil
		},
	}
	pipeline := newPipelineForTest(client, pipelineCompletion("SELECT region, total FROM orders", "table"))

	resp := pipeline.Run(context.Background(), pipelineSession(), "list orders", "")
	assert.Equal(t, models.QueryTypeTable, resp.QueryType, "sampling failures never fail the run")
}

func TestQueryPipeline_Run_ExtraContextInPrompt(t *testing.T) {
	client := &mockBIClient{
		RunQueryFunc: func(ctx context.Context, sessionID, sqlText string) (*metabase.DatasetResult, error) {
			return regionDataset(), nil
		},
	}
	var sawContext bool
	mock := llm.NewMockCompletionClient()
	mock.CompleteFunc = func(ctx context.Context, systemMessage, prompt string, maxTokens int, temperature float32) (string, error) {
		if strings.Contains(systemMessage, "SQL query generator") {
			sawContext = strings.Contains(prompt, "fiscal year starts in April")
			return "SELECT 1", nil
		}
		return "table", nil
	}
	pipeline := newPipelineForTest(client, mock)

	pipeline.Run(context.Background(), pipelineSession(), "quarterly revenue", "fiscal year starts in April")
	assert.True(t, sawContext)
}
