// Package dialects provides the per-database capabilities used by statement
// synthesis: identifier and alias quoting, placeholder rebinding, upsert
// syntax, RETURNING support and REPLACE availability.
package dialects

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned when a dialect does not implement a capability.
var ErrUnsupported = errors.New("operation not supported by dialect")

// Dialect defines database-specific behaviors.
type Dialect interface {
	// Name returns the canonical dialect name.
	Name() string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(string) string
	// QuoteAlias quotes a result-column alias.
	QuoteAlias(string) string
	// Placeholder returns the positional placeholder for a 1-based index.
	Placeholder(int) string
	// Upsert returns the conflict clause appended to an insert of columns.
	// Columns and target are already quoted.
	Upsert(target string, columns []string) (UpsertClause, error)
	// Returning returns the clause that makes an insert return column. An
	// empty clause with a nil error means the driver reports the generated
	// id itself (LastInsertId).
	Returning(column string) (string, error)
	// Replace returns the keyword opening a delete-then-insert statement.
	Replace() (string, error)
}

// UpsertClause is the dialect-specific tail of an upsert statement.
type UpsertClause struct {
	// SQL is appended right after the values list.
	SQL string
	// RebindValues is true when SQL holds fresh placeholders that take the
	// inserted values a second time, in the same order.
	RebindValues bool
}

var dialects = make(map[string]Dialect)

// RegisterDialect registers a database dialect by driver name.
func RegisterDialect(name string, d Dialect) {
	dialects[name] = d
}

// GetDialect retrieves a registered dialect by driver name, panics if not found.
func GetDialect(name string) Dialect {
	if d, ok := dialects[name]; ok {
		return d
	}
	panic("unsupported dialect: " + name)
}

// Lookup retrieves a registered dialect by driver name.
func Lookup(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}

// Rebind rewrites "?" placeholders into the dialect's positional form.
// Question marks inside single-quoted literals and double-quoted or
// backquoted identifiers are left alone. Every other "?" is a placeholder,
// so operators spelled with "?" must use their function forms.
func Rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			sb.WriteByte(c)
		case c == '\'' || c == '"' || c == '`':
			quote = c
			sb.WriteByte(c)
		case c == '?':
			n++
			sb.WriteString(d.Placeholder(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
