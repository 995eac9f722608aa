package statement

import (
	"strings"

	"github.com/coregx/sqlassist/internal/assist"
)

// Count counts the rows matching set, which may be nil.
//
//	select count(*) from t [join] [where ...] [group by ...]
func (s *Statement) Count(set *assist.ConditionSet) Result {
	const op = "count"
	if err := s.validate(set); err != nil {
		return s.fail(op, err)
	}
	sql, params := fold(
		text("select count(*) from "+s.table),
		joinFragment(set),
		whereFragment(set),
		groupByFragment(set),
	)
	return s.ok(op, KindQuery, sql, params)
}

// Exists selects a single constant row when any row matches set.
//
//	select 1 from t [join] [where ...] [group by ...] limit 1
func (s *Statement) Exists(set *assist.ConditionSet) Result {
	const op = "exists"
	if err := s.validate(set); err != nil {
		return s.fail(op, err)
	}
	sql, params := fold(
		text("select 1 from "+s.table),
		joinFragment(set),
		whereFragment(set),
		groupByFragment(set),
		text("limit 1"),
	)
	return s.ok(op, KindQuery, sql, params)
}

// SelectAll selects the rows matching set, or every row when set is nil.
// Parameters follow the text: join, where, having, then limit and offset.
func (s *Statement) SelectAll(set *assist.ConditionSet) Result {
	const op = "selectAll"
	if set == nil {
		return s.ok(op, KindQuery, "select "+s.columns+" from "+s.table, nil)
	}
	if err := s.validate(set); err != nil {
		return s.fail(op, err)
	}

	head := "select "
	if set.IsDistinct() {
		head += "distinct "
	}
	if cols := set.ResultColumnList(); cols != "" {
		head += cols
	} else {
		head += s.columns
	}

	frags := []fragment{
		text(head + " from " + s.table),
		joinFragment(set),
		whereFragment(set),
		groupByFragment(set),
		havingFragment(set),
		orderByFragment(set),
	}
	frags = append(frags, pageFragments(set)...)
	sql, params := fold(frags...)
	return s.ok(op, KindQuery, sql, params)
}

// SelectByID selects the row whose primary key is id. columns overrides the
// result columns and join is placed after the table, both when non-empty.
//
//	select cols from t [join] where pk = ?
func (s *Statement) SelectByID(id any, columns, join string) Result {
	const op = "selectById"
	if id == nil {
		return s.fail(op, buildError("primary key %s has no value", s.md.PrimaryKey()))
	}
	if err := s.validateRaw(columns, join); err != nil {
		return s.fail(op, err)
	}
	if columns == "" {
		columns = s.columns
	}
	sql, params := fold(
		text("select "+columns+" from "+s.table),
		text(join),
		fragment{text: "where " + s.pk + " = ?", params: []any{id}},
	)
	return s.ok(op, KindQuery, sql, params)
}

// SelectByObject selects the rows equal to every non-null field of obj.
// Predicates are chained in reverse field declaration order. With no non-null
// field every row is selected. single appends limit 1.
func (s *Statement) SelectByObject(obj any, columns, join string, single bool) Result {
	op := "selectByObj"
	if single {
		op = "selectSingleByObj"
	}
	if err := s.validateRaw(columns, join); err != nil {
		return s.fail(op, err)
	}
	values, err := s.values(obj, true, true)
	if err != nil {
		return s.fail(op, err)
	}
	if columns == "" {
		columns = s.columns
	}

	where := fragment{}
	if len(values) > 0 {
		preds := make([]string, 0, len(values))
		params := make([]any, 0, len(values))
		for i := len(values) - 1; i >= 0; i-- {
			preds = append(preds, s.dialect.QuoteIdentifier(values[i].Column)+" = ?")
			params = append(params, values[i].Value)
		}
		where = fragment{text: "where " + strings.Join(preds, " and "), params: params}
	}

	limit := fragment{}
	if single {
		limit = text("limit 1")
	}
	sql, params := fold(
		text("select "+columns+" from "+s.table),
		text(join),
		where,
		limit,
	)
	return s.ok(op, KindQuery, sql, params)
}

// SelectSingleByObject is SelectByObject in single-result mode.
func (s *Statement) SelectSingleByObject(obj any, columns, join string) Result {
	return s.SelectByObject(obj, columns, join, true)
}

func (s *Statement) validateRaw(fragments ...string) error {
	if s.validator == nil {
		return nil
	}
	if err := s.validator.ValidateFragments(fragments); err != nil {
		return wrapBuild(err)
	}
	return nil
}
