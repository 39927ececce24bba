package dbquery

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// serializeValue reduces a scanned value to the JSON-safe subset the result
// contract promises: numbers, strings, booleans, null. NUMERIC and DECIMAL
// columns become float64, trading arbitrary precision for plain JSON numbers.
// DATE columns render as 2006-01-02, timestamps as RFC 3339.
func serializeValue(value any, columnType *sql.ColumnType) any {
	dbType := ""
	if columnType != nil {
		dbType = strings.ToUpper(columnType.DatabaseTypeName())
	}

	switch typed := value.(type) {
	case nil:
		return nil
	case time.Time:
		if dbType == "DATE" {
			return typed.Format("2006-01-02")
		}
		return typed.Format(time.RFC3339)
	case []byte:
		text := string(typed)
		if isDecimalType(dbType) {
			if parsed, err := strconv.ParseFloat(text, 64); err == nil {
				return parsed
			}
		}
		return text
	case string:
		if isDecimalType(dbType) {
			if parsed, err := strconv.ParseFloat(typed, 64); err == nil {
				return parsed
			}
		}
		return typed
	default:
		return typed
	}
}

func isDecimalType(dbType string) bool {
	return strings.Contains(dbType, "NUMERIC") || strings.Contains(dbType, "DECIMAL")
}
