package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/config"
	"github.com/sqlscribe/sqlscribe/pkg/llm"
	"github.com/sqlscribe/sqlscribe/pkg/logging"
	"github.com/sqlscribe/sqlscribe/pkg/models"
)

const sqlSystemMessage = "You are an expert SQL query generator. Generate clean, " +
	"efficient SQL queries based on natural language questions. Always explain " +
	"your query logic."

const chartSuggestionMaxTokens = 50

// SQLGenService turns natural language into SQL and classifies results for
// presentation, via the configured completion backend.
type SQLGenService interface {
	// GenerateSQL produces SQL for a question given prompt-ready schema text
	// and optional per-table sample rows.
	GenerateSQL(ctx context.Context, question, schemaContext string, samples map[string][]map[string]any) (*models.GeneratedQuery, error)

	// SuggestChart asks the completion backend how the result should be
	// displayed. Any failure or unrecognized answer means table display.
	SuggestChart(ctx context.Context, sqlQuery string, columns []string, sampleRows []map[string]any) models.ChartType

	// SummarizeSchema produces a prose summary of the schema. Failure
	// degrades to a fixed placeholder, never an error.
	SummarizeSchema(ctx context.Context, schema *models.SchemaDescription) string
}

type sqlGenService struct {
	client      llm.CompletionClient
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewSQLGenService creates a new SQL generation service.
func NewSQLGenService(client llm.CompletionClient, cfg *config.CompletionConfig, logger *zap.Logger) SQLGenService {
	return &sqlGenService{
		client:      client,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.Named("sqlgen"),
	}
}

// withTimeout applies the configured completion budget, if any.
func (s *sqlGenService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *sqlGenService) GenerateSQL(ctx context.Context, question, schemaContext string, samples map[string][]map[string]any) (*models.GeneratedQuery, error) {
	prompt := buildSQLPrompt(question, schemaContext, samples)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	content, err := s.client.Complete(ctx, sqlSystemMessage, prompt, s.maxTokens, s.temperature)
	if err != nil {
		s.logger.Error("SQL generation failed",
			zap.String("question", logging.Sanitize(question)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	query, explanation := parseSQLResponse(content)
	s.logger.Info("Generated SQL query",
		zap.String("query", logging.TruncateQuery(query)),
		zap.String("model", s.client.Model()))

	return &models.GeneratedQuery{
		Query:         query,
		Explanation:   explanation,
		EstimatedRows: estimateRows(query),
	}, nil
}

func (s *sqlGenService) SuggestChart(ctx context.Context, sqlQuery string, columns []string, sampleRows []map[string]any) models.ChartType {
	if len(sampleRows) > 3 {
		sampleRows = sampleRows[:3]
	}
	sampleJSON, err := json.Marshal(sampleRows)
	if err != nil {
		sampleJSON = []byte("[]")
	}

	prompt := fmt.Sprintf(`Based on this SQL query and its results, determine if this data should be displayed as a chart or table, and if chart, which type:

SQL Query: %s
Columns: %s
Sample Results: %s

Guidelines:
- Use TABLES for: lists of records, detailed data, contact information, individual entries
- Use CHARTS for: aggregated data, counts, sums, averages, trends, comparisons, analytics

Examples:
- Customer names and phones -> TABLE
- Sales by month -> LINE chart
- Revenue by region -> BAR chart
- Category distribution -> PIE chart
- Performance metrics -> SCATTER chart

If this data should be displayed as a TABLE (not a chart), respond with: "table"
If this data should be displayed as a chart, respond with one of: "bar", "line", "pie", "scatter", "histogram", "area"

Respond with just the visualization type, nothing else.`,
		sqlQuery, strings.Join(columns, ", "), sampleJSON)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	suggestion, err := s.client.Complete(ctx, "", prompt, chartSuggestionMaxTokens, 0.1)
	if err != nil {
		s.logger.Warn("Chart suggestion failed, defaulting to table",
			zap.String("error", logging.SanitizeError(err)))
		return models.ChartTypeNone
	}

	return models.ParseChartType(suggestion)
}

func (s *sqlGenService) SummarizeSchema(ctx context.Context, schema *models.SchemaDescription) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "Schema analysis not available"
	}

	prompt := fmt.Sprintf(`Analyze this database schema and provide a concise summary of the tables, relationships, and key business entities:

Schema Information:
%s

Provide a brief summary that will help with SQL query generation. Focus on:
1. Main business entities (users, orders, products, etc.)
2. Key relationships between tables
3. Important columns for common queries
4. Any naming conventions or patterns

Keep it concise but informative.`, schemaJSON)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	summary, err := s.client.Complete(ctx, "", prompt, 500, 0.1)
	if err != nil {
		s.logger.Warn("Schema summarization failed",
			zap.String("error", logging.SanitizeError(err)))
		return "Schema analysis not available"
	}
	return strings.TrimSpace(summary)
}

func buildSQLPrompt(question, schemaContext string, samples map[string][]map[string]any) string {
	var sampleText strings.Builder
	if len(samples) > 0 {
		sampleText.WriteString("Sample Data:\n")
		for table, rows := range samples {
			if len(rows) > 3 {
				rows = rows[:3]
			}
			rowsJSON, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				continue
			}
			fmt.Fprintf(&sampleText, "\nTable: %s\n%s\n", table, rowsJSON)
		}
	}

	return fmt.Sprintf(`Generate a SQL query to answer this question: %q

Database Schema Context:
%s

%s
Requirements:
1. Generate clean, efficient SQL
2. Use proper table and column names from the schema
3. Handle potential NULL values appropriately
4. Add helpful comments if the query is complex
5. Limit results to reasonable numbers (add LIMIT if needed)

Format your response as:

SQL:
`+"```sql"+`
YOUR_SQL_QUERY_HERE
`+"```"+`

EXPLANATION:
Brief explanation of what the query does and why you chose this approach.`,
		question, schemaContext, sampleText.String())
}

// parseSQLResponse extracts the SQL statement and explanation from completion
// output. It never fails: with no recognizable structure the whole text is
// treated as SQL.
func parseSQLResponse(content string) (string, string) {
	content = strings.TrimSpace(content)

	var query string
	if start := strings.Index(content, "```sql"); start != -1 {
		rest := content[start+len("```sql"):]
		if end := strings.Index(rest, "```"); end != -1 {
			query = strings.TrimSpace(rest[:end])
		}
	}

	if query == "" {
		var sqlLines []string
		inSQL := false
		for _, line := range strings.Split(content, "\n") {
			upper := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(upper, "SQL:"):
				inSQL = true
			case strings.HasPrefix(upper, "EXPLANATION:"):
				inSQL = false
			case inSQL:
				sqlLines = append(sqlLines, line)
			}
		}
		query = strings.TrimSpace(strings.Join(sqlLines, "\n"))
	}

	explanation := "SQL query generated successfully"
	if idx := strings.Index(content, "EXPLANATION:"); idx != -1 {
		explanation = strings.TrimSpace(content[idx+len("EXPLANATION:"):])
	}

	if query == "" {
		query = content
	}
	return query, explanation
}

// estimateRows guesses result cardinality from query shape. Advisory only.
func estimateRows(sqlQuery string) int {
	lower := strings.ToLower(sqlQuery)

	switch {
	case strings.Contains(lower, "count(") && !strings.Contains(lower, "group by"):
		return 1
	case strings.Contains(lower, "group by"):
		return 50
	case strings.Contains(lower, "limit"):
		pos := strings.LastIndex(lower, "limit")
		fields := strings.Fields(sqlQuery[pos:])
		if len(fields) >= 2 {
			raw := strings.TrimSuffix(fields[1], ";")
			if n, err := strconv.Atoi(raw); err == nil {
				return n
			}
		}
		return 100
	default:
		return 1000
	}
}

var _ SQLGenService = (*sqlGenService)(nil)
