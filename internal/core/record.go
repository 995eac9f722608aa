package core

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Record is one result row keyed by column label.
type Record map[string]any

// scanRecords reads every row into a Record. Byte slices are returned as
// strings, which is how text columns come back from most drivers.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("scan: columns: %w", err)
	}

	records := make([]Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dests := make([]any, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		rec := make(Record, len(columns))
		for i, col := range columns {
			rec[col] = normalizeValue(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: rows: %w", err)
	}
	return records, nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// toInt64 converts a scanned numeric value.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a count", ErrUnexpectedResult, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %T is not a count", ErrUnexpectedResult, v)
	}
}
