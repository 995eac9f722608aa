package dialects

import (
	"strconv"
	"strings"
)

// PostgresDialect implements PostgreSQL-specific SQL dialect.
type PostgresDialect struct{}

func init() {
	RegisterDialect("postgres", &PostgresDialect{})
	RegisterDialect("postgresql", &PostgresDialect{})
	RegisterDialect("pgx", &PostgresDialect{})
}

// Name returns "postgres".
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// QuoteIdentifier quotes a PostgreSQL identifier using double quotes.
func (d *PostgresDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteAlias quotes a PostgreSQL alias using double quotes.
func (d *PostgresDialect) QuoteAlias(s string) string {
	return d.QuoteIdentifier(s)
}

// Placeholder returns PostgreSQL placeholder format ($1, $2, etc.).
func (d *PostgresDialect) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// Upsert generates ON CONFLICT (target) DO UPDATE SET col = excluded.col for
// every column but the target. The update references the proposed row, so no
// value is bound twice. With nothing left to update it falls back to DO NOTHING.
func (d *PostgresDialect) Upsert(target string, columns []string) (UpsertClause, error) {
	updates := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == target {
			continue
		}
		updates = append(updates, col+" = excluded."+col)
	}
	if len(updates) == 0 {
		return UpsertClause{SQL: " on conflict (" + target + ") do nothing"}, nil
	}
	return UpsertClause{
		SQL: " on conflict (" + target + ") do update set " + strings.Join(updates, ", "),
	}, nil
}

// Returning generates a RETURNING clause.
func (d *PostgresDialect) Returning(column string) (string, error) {
	return " returning " + column, nil
}

// Replace is not available in PostgreSQL.
func (d *PostgresDialect) Replace() (string, error) {
	return "", ErrUnsupported
}
