package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/ledgerchat/ledgerchat/internal/dbquery"
)

// exportRow is the parquet envelope for one result row. Rows are carried as
// JSON text rather than typed columns so that a single file schema covers any
// query shape.
type exportRow struct {
	QuerySQL         string `parquet:"query_sql"`
	ColumnsJSON      string `parquet:"columns_json"`
	RowIndex         int64  `parquet:"row_index"`
	RowJSON          string `parquet:"row_json"`
	ExportedAtUnixMs int64  `parquet:"exported_at_unix_ms"`
}

// EncodeResultToParquet serializes a successful execution result into a
// parquet payload, one envelope row per result row.
func EncodeResultToParquet(result dbquery.Result, exportedAt time.Time) ([]byte, int64, error) {
	if !result.Success {
		return nil, 0, fmt.Errorf("only successful results can be exported")
	}

	columnsJSON, err := json.Marshal(result.Columns)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal columns: %w", err)
	}
	exportedAtMs := exportedAt.UTC().UnixMilli()

	rows := make([]exportRow, 0, len(result.Data))
	for i, record := range result.Data {
		rowJSON, err := json.Marshal(record)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal row %d: %w", i, err)
		}
		rows = append(rows, exportRow{
			QuerySQL:         result.Query,
			ColumnsJSON:      string(columnsJSON),
			RowIndex:         int64(i),
			RowJSON:          string(rowJSON),
			ExportedAtUnixMs: exportedAtMs,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[exportRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, 0, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("close parquet writer: %w", err)
	}

	return buf.Bytes(), int64(len(rows)), nil
}
