package dialects

import "strings"

// SQLiteDialect implements the capability-limited SQLite dialect: upsert and
// id-returning inserts fail instead of degrading.
type SQLiteDialect struct{}

func init() {
	RegisterDialect("sqlite", &SQLiteDialect{})
	RegisterDialect("sqlite3", &SQLiteDialect{})
}

// Name returns "sqlite".
func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

// QuoteIdentifier quotes a SQLite identifier using double quotes.
func (d *SQLiteDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteAlias quotes a SQLite alias using double quotes.
func (d *SQLiteDialect) QuoteAlias(s string) string {
	return d.QuoteIdentifier(s)
}

// Placeholder returns SQLite placeholder format (always "?").
func (d *SQLiteDialect) Placeholder(_ int) string {
	return "?"
}

// Upsert is not supported.
func (d *SQLiteDialect) Upsert(_ string, _ []string) (UpsertClause, error) {
	return UpsertClause{}, ErrUnsupported
}

// Returning is not supported.
func (d *SQLiteDialect) Returning(_ string) (string, error) {
	return "", ErrUnsupported
}

// Replace returns "replace into".
func (d *SQLiteDialect) Replace() (string, error) {
	return "replace into", nil
}
