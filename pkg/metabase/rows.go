package metabase

import (
	"fmt"

	"github.com/sqlscribe/sqlscribe/pkg/jsonutil"
)

// RowMaps converts positional rows into column-keyed maps with every value
// normalized to a plain JSON-representable shape. When column metadata is
// missing, synthetic column_N names are generated from the first row.
func (r *DatasetResult) RowMaps() ([]string, []map[string]any) {
	columns := r.Columns
	if len(columns) == 0 && len(r.Rows) > 0 {
		columns = make([]string, len(r.Rows[0]))
		for i := range columns {
			columns[i] = fmt.Sprintf("column_%d", i)
		}
	}

	rows := make([]map[string]any, 0, len(r.Rows))
	for _, raw := range r.Rows {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(raw) {
				row[col] = jsonutil.Normalize(raw[i])
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}
	return columns, rows
}
