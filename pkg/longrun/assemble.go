package longrun

import (
	"fmt"
	"math"

	"github.com/liliang-cn/toolbridge/pkg/domain"
)

// Cell is one value in a raw result row. Null marks a cell the remote
// returned without a value.
type Cell struct {
	Value string
	Null  bool
}

// RawResult is the fetch step's output before assembly: optional column
// metadata, positional rows, and whatever statistics the remote reported.
type RawResult struct {
	Columns []domain.Column
	Rows    [][]Cell
	Stats   *domain.QueryStats
}

// assemble builds the final ResultSet. When the remote response carries no
// column metadata, the first row is treated as an implicit header and its
// cells become the column names (col_N for empty cells). This mirrors the
// ambiguous responses of the upstream service and is kept for
// compatibility; rows shorter than the column set are padded with empty
// strings, longer rows are clamped, so the column count stays fixed.
func assemble(raw *RawResult) (*domain.ResultSet, *domain.QueryStats) {
	columns := raw.Columns
	dataRows := raw.Rows

	if len(columns) == 0 && len(raw.Rows) > 0 {
		header := raw.Rows[0]
		columns = make([]domain.Column, len(header))
		for j, cell := range header {
			name := cell.Value
			if cell.Null || name == "" {
				name = fmt.Sprintf("col_%d", j)
			}
			columns[j] = domain.Column{Name: name, Type: "varchar"}
		}
		dataRows = raw.Rows[1:]
	}

	rows := make([]map[string]string, 0, len(dataRows))
	for _, rawRow := range dataRows {
		row := make(map[string]string, len(columns))
		for j, col := range columns {
			value := ""
			if j < len(rawRow) && !rawRow[j].Null {
				value = rawRow[j].Value
			}
			row[col.Name] = value
		}
		rows = append(rows, row)
	}

	result := &domain.ResultSet{
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}

	stats := raw.Stats
	if stats == nil {
		stats = &domain.QueryStats{}
	}
	stats.DataScannedMB = math.Round(float64(stats.DataScannedBytes)/(1024*1024)*100) / 100

	return result, stats
}
