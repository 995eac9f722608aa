package statement

import (
	"fmt"
	"strings"
)

// Kind tells the executor how to submit a Result.
type Kind int

const (
	// KindQuery returns rows.
	KindQuery Kind = iota
	// KindExec returns an affected-row count.
	KindExec
	// KindInsertReturning returns the generated key as a row.
	KindInsertReturning
	// KindInsertLastID returns the generated key through the driver.
	KindInsertLastID
	// KindBatch executes one template once per parameter tuple.
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindExec:
		return "exec"
	case KindInsertReturning:
		return "insert-returning"
	case KindInsertLastID:
		return "insert-last-id"
	case KindBatch:
		return "batch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one synthesis call. It is never modified after it
// is returned. A failed Result carries no executable SQL: SQL returns the
// diagnostic instead.
type Result struct {
	op     string
	table  string
	kind   Kind
	sql    string
	params []any
	batch  [][]any
	err    error
}

// Op returns the operation that produced the result, e.g. "deleteById".
func (r Result) Op() string { return r.op }

// Table returns the unquoted table of the entity.
func (r Result) Table() string { return r.table }

// Kind returns how the statement is to be submitted.
func (r Result) Kind() Kind { return r.kind }

// Succeeded reports whether synthesis produced a statement.
func (r Result) Succeeded() bool { return r.err == nil }

// Err returns the synthesis failure, nil on success.
func (r Result) Err() error { return r.err }

// SQL returns the statement text, or the diagnostic of a failed result.
func (r Result) SQL() string {
	if r.err != nil {
		return r.err.Error()
	}
	return r.sql
}

// Params returns a copy of the bound parameters in placeholder order.
func (r Result) Params() []any {
	if r.params == nil {
		return []any{}
	}
	out := make([]any, len(r.params))
	copy(out, r.params)
	return out
}

// BatchParams returns a copy of the parameter tuples of a batch result.
func (r Result) BatchParams() [][]any {
	out := make([][]any, len(r.batch))
	for i, tuple := range r.batch {
		out[i] = append([]any(nil), tuple...)
	}
	return out
}

func (r Result) String() string {
	if r.err != nil {
		return r.op + " failed: " + r.err.Error()
	}
	var sb strings.Builder
	sb.WriteString(r.sql)
	if r.kind == KindBatch {
		fmt.Fprintf(&sb, " x%d", len(r.batch))
		return sb.String()
	}
	fmt.Fprintf(&sb, " %v", r.params)
	return sb.String()
}

func success(op, table string, kind Kind, sql string, params []any) Result {
	if params == nil {
		params = []any{}
	}
	return Result{op: op, table: table, kind: kind, sql: sql, params: params}
}

func failure(op, table string, err error) Result {
	return Result{op: op, table: table, err: fmt.Errorf("%s: %w", op, err)}
}
