package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sqlscribe/sqlscribe/pkg/models"
)

const (
	maxCategories  = 15
	maxDisplayRows = 100
)

// PresentationService turns query results into frontend-ready chart and
// table artifacts.
type PresentationService interface {
	// BuildChart builds a chart artifact for the hinted type. A none hint or
	// an empty result yields nil.
	BuildChart(result *models.QueryResult, hint models.ChartType) *models.ChartData

	// BuildTable formats the result as a display table, capped at 100 rows.
	BuildTable(result *models.QueryResult) *models.TableData
}

type presentationService struct {
	logger *zap.Logger
}

// NewPresentationService creates a new presentation service.
func NewPresentationService(logger *zap.Logger) PresentationService {
	return &presentationService{logger: logger.Named("presentation")}
}

func (s *presentationService) BuildChart(result *models.QueryResult, hint models.ChartType) *models.ChartData {
	if result == nil || len(result.Rows) == 0 || hint == models.ChartTypeNone {
		return nil
	}

	var data map[string]any
	switch hint {
	case models.ChartTypePie:
		data = pieData(result)
	case models.ChartTypeScatter:
		data = scatterData(result)
	case models.ChartTypeLine, models.ChartTypeArea:
		// Ordered series: capping keeps the top categories by value but
		// preserves their original label order.
		data = barData(result, true)
	default:
		// bar, histogram, and anything else render as bar data
		data = barData(result, false)
	}

	return &models.ChartData{
		ChartType:   hint,
		Data:        data,
		Title:       chartTitle(hint),
		Description: fmt.Sprintf("Showing %d records", len(result.Rows)),
	}
}

func chartTitle(t models.ChartType) string {
	name := string(t)
	if name == "" {
		return "Chart"
	}
	return strings.ToUpper(name[:1]) + name[1:] + " Chart"
}

// barData aggregates the first text column against the first numeric column,
// summing values per label. Non-numeric values count as 1 occurrence.
func barData(result *models.QueryResult, preserveOrder bool) map[string]any {
	columns := result.Columns
	rows := result.Rows

	textCol, numericCol := "", ""
	if len(rows) > 0 {
		for _, col := range columns {
			v := rows[0][col]
			if textCol == "" {
				if _, ok := v.(string); ok {
					textCol = col
				}
			}
			if numericCol == "" {
				if _, ok := asFloat(v); ok {
					numericCol = col
				}
			}
			if textCol != "" && numericCol != "" {
				break
			}
		}
	}
	if textCol == "" {
		if len(columns) > 0 {
			textCol = columns[0]
		} else {
			textCol = "category"
		}
	}
	if numericCol == "" {
		switch {
		case len(columns) > 1:
			numericCol = columns[1]
		case len(columns) == 1:
			numericCol = columns[0]
		default:
			numericCol = "value"
		}
	}

	var order []string
	totals := make(map[string]float64)
	for _, row := range rows {
		key := "Unknown"
		if v, ok := row[textCol]; ok && v != nil {
			key = fmt.Sprint(v)
		}
		value, ok := asFloat(row[numericCol])
		if !ok {
			value = 1 // count occurrences when not numeric
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += value
	}

	if len(order) > maxCategories {
		ranked := make([]string, len(order))
		copy(ranked, order)
		sort.SliceStable(ranked, func(i, j int) bool {
			return totals[ranked[i]] > totals[ranked[j]]
		})
		ranked = ranked[:maxCategories]

		if preserveOrder {
			kept := make(map[string]bool, len(ranked))
			for _, k := range ranked {
				kept[k] = true
			}
			filtered := order[:0]
			for _, k := range order {
				if kept[k] {
					filtered = append(filtered, k)
				}
			}
			order = filtered
		} else {
			order = ranked
		}
	}

	labels := make([]string, 0, len(order))
	values := make([]float64, 0, len(order))
	for _, key := range order {
		labels = append(labels, key)
		values = append(values, totals[key])
	}

	return map[string]any{
		"labels":  labels,
		"values":  values,
		"x_label": textCol,
		"y_label": numericCol,
	}
}

func pieData(result *models.QueryResult) map[string]any {
	data := barData(result, false)
	var total float64
	for _, v := range data["values"].([]float64) {
		total += v
	}
	return map[string]any{
		"labels": data["labels"],
		"values": data["values"],
		"total":  total,
	}
}

func scatterData(result *models.QueryResult) map[string]any {
	columns := result.Columns
	rows := result.Rows

	var numericCols []string
	if len(rows) > 0 {
		for _, col := range columns {
			if _, ok := asFloat(rows[0][col]); ok {
				numericCols = append(numericCols, col)
			}
			if len(numericCols) >= 2 {
				break
			}
		}
	}
	if len(numericCols) < 2 {
		if len(columns) >= 2 {
			numericCols = columns[:2]
		} else {
			numericCols = append(append([]string{}, columns...), "value")
		}
	}
	xCol := numericCols[0]
	yCol := numericCols[0]
	if len(numericCols) > 1 {
		yCol = numericCols[1]
	}

	xValues := make([]float64, 0, len(rows))
	yValues := make([]float64, 0, len(rows))
	for _, row := range rows {
		x, ok := asFloat(row[xCol])
		if !ok {
			x = 0
		}
		y, ok := asFloat(row[yCol])
		if !ok {
			y = 0
		}
		xValues = append(xValues, x)
		yValues = append(yValues, y)
	}

	return map[string]any{
		"x_values": xValues,
		"y_values": yValues,
		"x_label":  xCol,
		"y_label":  yCol,
	}
}

func (s *presentationService) BuildTable(result *models.QueryResult) *models.TableData {
	if result == nil {
		return &models.TableData{Columns: []models.TableColumn{}, Rows: []map[string]any{}}
	}

	displayRows := result.Rows
	if len(displayRows) > maxDisplayRows {
		displayRows = displayRows[:maxDisplayRows]
	}

	formatted := make([]map[string]any, 0, len(displayRows))
	for _, row := range displayRows {
		out := make(map[string]any, len(row))
		for col, value := range row {
			out[col] = formatCell(value)
		}
		formatted = append(formatted, out)
	}

	columns := make([]models.TableColumn, 0, len(result.Columns))
	for _, col := range result.Columns {
		columns = append(columns, models.TableColumn{
			Field:      col,
			HeaderName: headerName(col),
			Sortable:   true,
			Width:      150,
		})
	}

	return &models.TableData{
		Columns:       columns,
		Rows:          formatted,
		TotalRows:     result.RowCount,
		DisplayedRows: len(formatted),
		HasMore:       result.RowCount > len(formatted),
	}
}

func formatCell(value any) any {
	switch v := value.(type) {
	case nil:
		return "N/A"
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		return math.Round(v*100) / 100
	case float32:
		return math.Round(float64(v)*100) / 100
	default:
		return fmt.Sprint(v)
	}
}

func headerName(col string) string {
	words := strings.Split(strings.ReplaceAll(col, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// asFloat coerces normalized scalar values to float64. Booleans are not
// numeric here.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

var _ PresentationService = (*presentationService)(nil)
