package dialects

import "strings"

// MySQLDialect implements MySQL-specific SQL dialect.
type MySQLDialect struct{}

func init() {
	RegisterDialect("mysql", &MySQLDialect{})
}

// Name returns "mysql".
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// QuoteIdentifier quotes a MySQL identifier using backticks.
func (d *MySQLDialect) QuoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// QuoteAlias quotes a MySQL alias using backticks.
func (d *MySQLDialect) QuoteAlias(s string) string {
	return d.QuoteIdentifier(s)
}

// Placeholder returns MySQL placeholder format (always "?").
func (d *MySQLDialect) Placeholder(_ int) string {
	return "?"
}

// Upsert generates ON DUPLICATE KEY UPDATE with fresh placeholders for every
// column. MySQL picks the conflicting key itself, so target is ignored.
func (d *MySQLDialect) Upsert(_ string, columns []string) (UpsertClause, error) {
	if len(columns) == 0 {
		return UpsertClause{}, nil
	}
	updates := make([]string, len(columns))
	for i, col := range columns {
		updates[i] = col + " = ?"
	}
	return UpsertClause{
		SQL:          " on duplicate key update " + strings.Join(updates, ", "),
		RebindValues: true,
	}, nil
}

// Returning reports that the id comes from LastInsertId.
func (d *MySQLDialect) Returning(_ string) (string, error) {
	return "", nil
}

// Replace returns "replace into".
func (d *MySQLDialect) Replace() (string, error) {
	return "replace into", nil
}
