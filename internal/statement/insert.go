package statement

import (
	"strings"

	"github.com/coregx/sqlassist/internal/meta"
)

// columnsAndParams splits field values into quoted column names and values.
func (s *Statement) columnsAndParams(values []meta.FieldValue) ([]string, []any) {
	cols := make([]string, len(values))
	params := make([]any, len(values))
	for i, v := range values {
		cols[i] = s.dialect.QuoteIdentifier(v.Column)
		params[i] = v.Value
	}
	return cols, params
}

func (s *Statement) insertText(keyword string, cols []string) string {
	return keyword + " " + s.table + " (" + strings.Join(cols, ", ") + ") values (" + placeholders(len(cols)) + ")"
}

// InsertAll inserts every field of obj, binding null values as NULL.
func (s *Statement) InsertAll(obj any) Result {
	return s.insert("insertAll", obj, false, false)
}

// InsertNonEmpty inserts the non-null fields of obj. With no such field the
// statement inserts an empty column list, which most databases reject.
func (s *Statement) InsertNonEmpty(obj any) Result {
	return s.insert("insertNonEmpty", obj, true, false)
}

// InsertAllReturnID is InsertAll returning the generated primary key: through
// a returning clause where the dialect has one, through the driver otherwise.
func (s *Statement) InsertAllReturnID(obj any) Result {
	return s.insert("insertAllReturnId", obj, false, true)
}

// InsertNonEmptyReturnID is InsertNonEmpty returning the generated key.
func (s *Statement) InsertNonEmptyReturnID(obj any) Result {
	return s.insert("insertNonEmptyReturnId", obj, true, true)
}

func (s *Statement) insert(op string, obj any, nonNull, returnID bool) Result {
	values, err := s.values(obj, nonNull, true)
	if err != nil {
		return s.fail(op, err)
	}
	cols, params := s.columnsAndParams(values)
	sql := s.insertText("insert into", cols)
	if !returnID {
		return s.ok(op, KindExec, sql, params)
	}
	return s.withReturning(op, sql, params)
}

func (s *Statement) withReturning(op, sql string, params []any) Result {
	clause, err := s.dialect.Returning(s.pk)
	if err != nil {
		return s.fail(op, err)
	}
	if clause == "" {
		return s.ok(op, KindInsertLastID, sql, params)
	}
	return s.ok(op, KindInsertReturning, sql+clause, params)
}

// UpsertAll inserts every field of obj, updating the existing row when
// conflict (the primary key when empty) already exists.
func (s *Statement) UpsertAll(obj any, conflict string) Result {
	return s.upsert("upsertAll", obj, conflict, false, false)
}

// UpsertNonEmpty upserts the non-null fields of obj. It fails when obj has no
// non-null field.
func (s *Statement) UpsertNonEmpty(obj any, conflict string) Result {
	return s.upsert("upsertNonEmpty", obj, conflict, true, false)
}

// UpsertAllReturnID is UpsertAll returning the primary key.
func (s *Statement) UpsertAllReturnID(obj any, conflict string) Result {
	return s.upsert("upsertAllReturnId", obj, conflict, false, true)
}

// UpsertNonEmptyReturnID is UpsertNonEmpty returning the primary key.
func (s *Statement) UpsertNonEmptyReturnID(obj any, conflict string) Result {
	return s.upsert("upsertNonEmptyReturnId", obj, conflict, true, true)
}

func (s *Statement) upsert(op string, obj any, conflict string, nonNull, returnID bool) Result {
	values, err := s.values(obj, nonNull, true)
	if err != nil {
		return s.fail(op, err)
	}
	if len(values) == 0 {
		return s.fail(op, buildError("no non-null field to upsert"))
	}

	target := s.pk
	if conflict != "" {
		target = s.dialect.QuoteIdentifier(conflict)
	}
	cols, params := s.columnsAndParams(values)
	clause, err := s.dialect.Upsert(target, cols)
	if err != nil {
		return s.fail(op, err)
	}

	sql := s.insertText("insert into", cols) + clause.SQL
	if clause.RebindValues {
		params = append(params, params...)
	}
	if !returnID {
		return s.ok(op, KindExec, sql, params)
	}
	return s.withReturning(op, sql, params)
}

// Replace deletes any row conflicting with obj and inserts every field of it.
func (s *Statement) Replace(obj any) Result {
	const op = "replace"
	keyword, err := s.dialect.Replace()
	if err != nil {
		return s.fail(op, err)
	}
	values, err := s.values(obj, false, true)
	if err != nil {
		return s.fail(op, err)
	}
	cols, params := s.columnsAndParams(values)
	return s.ok(op, KindExec, s.insertText(keyword, cols), params)
}

// InsertBatch inserts every field of each object with one shared template.
func (s *Statement) InsertBatch(objs ...any) Result {
	const op = "insertBatch"
	if len(objs) == 0 {
		return s.fail(op, buildError("empty batch"))
	}
	batch := make([][]any, len(objs))
	var cols []string
	for i, obj := range objs {
		values, err := s.values(obj, false, true)
		if err != nil {
			return s.fail(op, err)
		}
		cols, batch[i] = s.columnsAndParams(values)
	}
	return s.batch(op, s.insertText("insert into", cols), batch)
}

// InsertBatchColumns inserts rows of values bound to the named columns.
func (s *Statement) InsertBatchColumns(columns []string, rows [][]any) Result {
	const op = "insertBatch"
	if len(columns) == 0 {
		return s.fail(op, buildError("no column to insert"))
	}
	if len(rows) == 0 {
		return s.fail(op, buildError("empty batch"))
	}
	batch := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return s.fail(op, buildError("row %d has %d values for %d columns", i, len(row), len(columns)))
		}
		batch[i] = append([]any(nil), row...)
	}
	return s.batch(op, s.insertText("insert into", s.quoteAll(columns)), batch)
}

func (s *Statement) batch(op, sql string, batch [][]any) Result {
	r := success(op, s.md.Table(), KindBatch, sql, nil)
	r.batch = batch
	s.logger.Debug("statement synthesized",
		"op", op,
		"dialect", s.dialect.Name(),
		"table", s.md.Table(),
		"kind", KindBatch.String(),
		"sql", sql,
		"batch_size", len(batch),
	)
	return r
}
