// Package analyzer reads the execution plan of a synthesized statement using
// the EXPLAIN facility of each supported database.
package analyzer

import (
	"context"
	"database/sql"
	"fmt"
)

// Plan is the execution plan of one statement, normalized across databases.
type Plan struct {
	Database      string  `json:"database"`
	Cost          float64 `json:"cost"`
	EstimatedRows int64   `json:"estimatedRows"`
	UsesIndex     bool    `json:"usesIndex"`
	IndexName     string  `json:"indexName,omitempty"`
	FullScan      bool    `json:"fullScan"`
	// Raw is the unparsed EXPLAIN output.
	Raw string `json:"raw"`
}

// Querier runs the EXPLAIN statement. *sql.DB and *sql.Conn satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Analyzer explains statements for one database.
type Analyzer interface {
	// Explain returns the plan of query without executing it. query uses
	// the placeholders of the target database.
	Explain(ctx context.Context, q Querier, query string, args []any) (*Plan, error)
}

// ForDialect returns the analyzer of the named dialect.
func ForDialect(name string) (Analyzer, error) {
	switch name {
	case "postgres":
		return postgresAnalyzer{}, nil
	case "mysql":
		return mysqlAnalyzer{}, nil
	case "sqlite":
		return sqliteAnalyzer{}, nil
	default:
		return nil, fmt.Errorf("explain: no analyzer for dialect %q", name)
	}
}

// scanSingle reads the one-column, one-row JSON output of postgres and mysql.
func scanSingle(ctx context.Context, q Querier, query string, args []any) (raw string, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("explain: %w", err)
		}
		return "", fmt.Errorf("explain: empty output")
	}
	if err := rows.Scan(&raw); err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}
	return raw, rows.Err()
}
