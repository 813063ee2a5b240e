package models

import (
	"strings"
	"time"
)

// QueryType classifies a chat response.
type QueryType string

const (
	QueryTypeTable QueryType = "table"
	QueryTypeChart QueryType = "chart"
	QueryTypeText  QueryType = "text"
	QueryTypeError QueryType = "error"
)

// ChartType is a closed set of chart renderings. ChartTypeNone means the
// result should be displayed as a table only.
type ChartType string

const (
	ChartTypeNone      ChartType = ""
	ChartTypeBar       ChartType = "bar"
	ChartTypeLine      ChartType = "line"
	ChartTypePie       ChartType = "pie"
	ChartTypeScatter   ChartType = "scatter"
	ChartTypeHistogram ChartType = "histogram"
	ChartTypeArea      ChartType = "area"
)

// ParseChartType maps raw classifier text to a ChartType. The mapping is
// total: "table", unrecognized, or empty input all resolve to ChartTypeNone.
func ParseChartType(raw string) ChartType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bar":
		return ChartTypeBar
	case "line":
		return ChartTypeLine
	case "pie":
		return ChartTypePie
	case "scatter":
		return ChartTypeScatter
	case "histogram":
		return ChartTypeHistogram
	case "area":
		return ChartTypeArea
	default:
		return ChartTypeNone
	}
}

// GeneratedQuery is the SQL produced for a user question. It is immutable
// once produced and attached verbatim to the response even on failure.
type GeneratedQuery struct {
	Query       string `json:"query"`
	Explanation string `json:"explanation"`
	// EstimatedRows is a heuristic, never checked against the real result.
	EstimatedRows int `json:"estimated_rows,omitempty"`
}

// QueryResult is a tabular result returned by Metabase.
type QueryResult struct {
	Rows            []map[string]any `json:"data"`
	Columns         []string         `json:"columns"`
	RowCount        int              `json:"row_count"`
	ExecutionTimeMs float64          `json:"execution_time_ms"`
}

// ChartData is a chart presentation artifact for frontend rendering.
type ChartData struct {
	ChartType   ChartType      `json:"chart_type"`
	Data        map[string]any `json:"data"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
}

// TableColumn describes one column of a formatted table artifact.
type TableColumn struct {
	Field      string `json:"field"`
	HeaderName string `json:"headerName"`
	Sortable   bool   `json:"sortable"`
	Width      int    `json:"width"`
}

// TableData is the formatted, row-capped table artifact.
type TableData struct {
	Columns       []TableColumn    `json:"columns"`
	Rows          []map[string]any `json:"rows"`
	TotalRows     int              `json:"total_rows"`
	DisplayedRows int              `json:"displayed_rows"`
	HasMore       bool             `json:"has_more"`
}

// ChatRequest is the caller's natural-language query.
type ChatRequest struct {
	Message string `json:"message"`
	// Context is optional free text to improve SQL generation.
	Context string `json:"context,omitempty"`
}

// ChatResponse is the terminal output of the query pipeline. Every response
// carries the generated SQL (even on failure, for transparency), elapsed
// wall-clock milliseconds, and a timestamp.
type ChatResponse struct {
	QueryType        QueryType       `json:"query_type"`
	SQLQuery         *GeneratedQuery `json:"sql_query"`
	Result           *QueryResult    `json:"result,omitempty"`
	Chart            *ChartData      `json:"chart,omitempty"`
	Table            *TableData      `json:"table,omitempty"`
	TextResponse     string          `json:"text_response,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	ProcessingTimeMs float64         `json:"processing_time_ms"`
	Timestamp        time.Time       `json:"timestamp"`
}
