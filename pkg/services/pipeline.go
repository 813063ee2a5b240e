package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/apperrors"
	"github.com/sqlscribe/sqlscribe/pkg/config"
	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/models"
	"github.com/sqlscribe/sqlscribe/pkg/sql"
)

// QueryPipeline runs a natural-language question end to end: schema fetch,
// SQL generation, safety validation, execution, and presentation. Run never
// returns an error; every failure mode is a well-formed error response.
type QueryPipeline interface {
	Run(ctx context.Context, session *models.Session, question, extraContext string) *models.ChatResponse
}

type queryPipeline struct {
	schema       SchemaService
	sqlgen       SQLGenService
	presentation PresentationService
	client       BIClient
	sampling     config.SamplingConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewQueryPipeline creates a new query pipeline.
func NewQueryPipeline(schema SchemaService, sqlgen SQLGenService, presentation PresentationService, client BIClient, sampling config.SamplingConfig, logger *zap.Logger) QueryPipeline {
	return &queryPipeline{
		schema:       schema,
		sqlgen:       sqlgen,
		presentation: presentation,
		client:       client,
		sampling:     sampling,
		logger:       logger.Named("pipeline"),
		now:          time.Now,
	}
}

func (p *queryPipeline) Run(ctx context.Context, session *models.Session, question, extraContext string) *models.ChatResponse {
	start := p.now()

	p.logger.Info("Processing query",
		zap.String("username", session.Username),
		zap.String("question", logging.Sanitize(question)))

	schema, err := p.schema.FetchSchema(ctx, session.MetabaseSessionID)
	if err != nil {
		return p.failure(start, nil, fmt.Sprintf("Failed to retrieve database schema: %s", logging.SanitizeError(err)), "")
	}

	schemaContext := p.schema.BuildSummary(schema)
	if extraContext != "" {
		schemaContext += "\n\nAdditional context from the user:\n" + extraContext
	}

	samples := p.collectSamples(ctx, session.MetabaseSessionID, schema)

	generated, err := p.sqlgen.GenerateSQL(ctx, question, schemaContext, samples)
	if err != nil {
		return p.failure(start, nil, fmt.Sprintf("Failed to generate SQL query: %s", logging.SanitizeError(err)), "")
	}

	validation := sql.ValidateAndNormalize(generated.Query)
	if validation.Error != nil {
		return p.failure(start, generated, fmt.Sprintf("Unsafe SQL query: %s", validation.Error), "")
	}
	if safe, reason := sql.CheckReadOnly(validation.NormalizedSQL); !safe {
		p.logger.Warn("Rejected unsafe SQL",
			zap.String("username", session.Username),
			zap.String("query", logging.TruncateQuery(generated.Query)),
			zap.Error(fmt.Errorf("%w: %s", apperrors.ErrUnsafeQuery, reason)))
		return p.failure(start, generated, fmt.Sprintf("Unsafe SQL query: %s", reason), "")
	}

	dataset, err := p.client.RunQuery(ctx, session.MetabaseSessionID, validation.NormalizedSQL)
	if err != nil {
		return p.failure(start, generated,
			fmt.Sprintf("SQL execution failed: %s", logging.SanitizeError(err)),
			"The SQL was generated but failed to execute. Please check the query syntax.")
	}

	columns, rows := dataset.RowMaps()
	result := &models.QueryResult{
		Rows:            rows,
		Columns:         columns,
		RowCount:        len(rows),
		ExecutionTimeMs: dataset.RunningTime,
	}

	sampleRows := result.Rows
	if len(sampleRows) > 3 {
		sampleRows = sampleRows[:3]
	}
	hint := p.sqlgen.SuggestChart(ctx, validation.NormalizedSQL, result.Columns, sampleRows)

	chart := p.presentation.BuildChart(result, hint)
	table := p.presentation.BuildTable(result)

	queryType := models.QueryTypeTable
	text := fmt.Sprintf("Found %d results. Data is best displayed in table format.", result.RowCount)
	if chart != nil {
		queryType = models.QueryTypeChart
		text = fmt.Sprintf("Found %d results. Generated %s chart for visualization.", result.RowCount, hint)
	}

	p.logger.Info("Query completed",
		zap.String("username", session.Username),
		zap.Int("rows", result.RowCount),
		zap.String("query_type", string(queryType)))

	return &models.ChatResponse{
		QueryType:        queryType,
		SQLQuery:         generated,
		Result:           result,
		Chart:            chart,
		Table:            table,
		TextResponse:     text,
		ProcessingTimeMs: p.elapsedMs(start),
		Timestamp:        p.now().UTC(),
	}
}

// collectSamples fetches a few example rows from the first configured number
// of tables. Sampling is best-effort context for generation; failures leave
// the table out.
func (p *queryPipeline) collectSamples(ctx context.Context, metabaseSessionID string, schema *models.SchemaDescription) map[string][]map[string]any {
	samples := make(map[string][]map[string]any)
	tables := schema.Tables
	if len(tables) > p.sampling.MaxTables {
		tables = tables[:p.sampling.MaxTables]
	}
	for _, table := range tables {
		rows := p.schema.FetchSample(ctx, metabaseSessionID, table.Name, p.sampling.RowsPerTable)
		if len(rows) > 0 {
			samples[table.Name] = rows
		}
	}
	return samples
}

func (p *queryPipeline) failure(start time.Time, generated *models.GeneratedQuery, message, text string) *models.ChatResponse {
	if generated == nil {
		generated = &models.GeneratedQuery{Explanation: "Query failed"}
	}
	return &models.ChatResponse{
		QueryType:        models.QueryTypeError,
		SQLQuery:         generated,
		ErrorMessage:     message,
		TextResponse:     text,
		ProcessingTimeMs: p.elapsedMs(start),
		Timestamp:        p.now().UTC(),
	}
}

func (p *queryPipeline) elapsedMs(start time.Time) float64 {
	return float64(p.now().Sub(start)) / float64(time.Millisecond)
}

var _ QueryPipeline = (*queryPipeline)(nil)
