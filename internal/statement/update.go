package statement

import (
	"strings"

	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/meta"
)

func (s *Statement) setFragment(values []meta.FieldValue) fragment {
	sets := make([]string, len(values))
	params := make([]any, len(values))
	for i, v := range values {
		sets[i] = s.dialect.QuoteIdentifier(v.Column) + " = ?"
		params[i] = v.Value
	}
	return fragment{text: "set " + strings.Join(sets, ", "), params: params}
}

func (s *Statement) byID(id any) fragment {
	return fragment{text: "where " + s.pk + " = ?", params: []any{id}}
}

// UpdateAllByID sets every non-key field of obj, nulls included, on the row
// identified by the primary key of obj.
//
//	update t set a = ?, b = ? where pk = ?
func (s *Statement) UpdateAllByID(obj any) Result {
	return s.updateByID("updateAllById", obj, false)
}

// UpdateNonEmptyByID sets the non-null non-key fields of obj on the row
// identified by the primary key of obj.
func (s *Statement) UpdateNonEmptyByID(obj any) Result {
	return s.updateByID("updateNonEmptyById", obj, true)
}

func (s *Statement) updateByID(op string, obj any, nonNull bool) Result {
	id, err := s.primaryKeyValue(obj)
	if err != nil {
		return s.fail(op, err)
	}
	values, err := s.values(obj, nonNull, false)
	if err != nil {
		return s.fail(op, err)
	}
	if len(values) == 0 {
		return s.fail(op, buildError("no field to set"))
	}
	sql, params := fold(text("update "+s.table), s.setFragment(values), s.byID(id))
	return s.ok(op, KindExec, sql, params)
}

// UpdateAllByAssist sets every field of obj on the rows matching set. It
// fails when set has no predicate.
func (s *Statement) UpdateAllByAssist(obj any, set *assist.ConditionSet) Result {
	return s.updateByAssist("updateAllByAssist", obj, set, false)
}

// UpdateNonEmptyByAssist sets the non-null fields of obj on the rows matching
// set. It fails when set has no predicate or obj no non-null field.
func (s *Statement) UpdateNonEmptyByAssist(obj any, set *assist.ConditionSet) Result {
	return s.updateByAssist("updateNonEmptyByAssist", obj, set, true)
}

func (s *Statement) updateByAssist(op string, obj any, set *assist.ConditionSet, nonNull bool) Result {
	if !set.HasConditions() {
		return s.fail(op, buildError("condition set has no predicate"))
	}
	if err := s.validate(set); err != nil {
		return s.fail(op, err)
	}
	values, err := s.values(obj, nonNull, true)
	if err != nil {
		return s.fail(op, err)
	}
	if len(values) == 0 {
		return s.fail(op, buildError("no field to set"))
	}
	sql, params := fold(text("update "+s.table), s.setFragment(values), whereFragment(set))
	return s.ok(op, KindExec, sql, params)
}

func (s *Statement) setNull(columns []string) (fragment, error) {
	if len(columns) == 0 {
		return fragment{}, buildError("no column to set null")
	}
	sets := make([]string, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return fragment{}, buildError("empty column name")
		}
		sets[i] = s.dialect.QuoteIdentifier(c) + " = null"
	}
	return text("set " + strings.Join(sets, ", ")), nil
}

// UpdateSetNullByID sets the named columns to null on the row whose primary
// key is id.
//
//	update t set a = null, b = null where pk = ?
func (s *Statement) UpdateSetNullByID(id any, columns ...string) Result {
	const op = "updateSetNullById"
	if id == nil {
		return s.fail(op, buildError("primary key %s has no value", s.md.PrimaryKey()))
	}
	set, err := s.setNull(columns)
	if err != nil {
		return s.fail(op, err)
	}
	sql, params := fold(text("update "+s.table), set, s.byID(id))
	return s.ok(op, KindExec, sql, params)
}

// UpdateSetNullByAssist sets the named columns to null on the rows matching
// cond. It fails when cond has no predicate.
func (s *Statement) UpdateSetNullByAssist(cond *assist.ConditionSet, columns ...string) Result {
	const op = "updateSetNullByAssist"
	if !cond.HasConditions() {
		return s.fail(op, buildError("condition set has no predicate"))
	}
	if err := s.validate(cond); err != nil {
		return s.fail(op, err)
	}
	set, err := s.setNull(columns)
	if err != nil {
		return s.fail(op, err)
	}
	sql, params := fold(text("update "+s.table), set, whereFragment(cond))
	return s.ok(op, KindExec, sql, params)
}
