package statement

import "github.com/coregx/sqlassist/internal/assist"

// DeleteByID deletes the row whose primary key is id.
//
//	delete from t where pk = ?
func (s *Statement) DeleteByID(id any) Result {
	const op = "deleteById"
	if id == nil {
		return s.fail(op, buildError("primary key %s has no value", s.md.PrimaryKey()))
	}
	sql, params := fold(text("delete from "+s.table), s.byID(id))
	return s.ok(op, KindExec, sql, params)
}

// DeleteByAssist deletes the rows matching set. It fails when set has no
// predicate.
func (s *Statement) DeleteByAssist(set *assist.ConditionSet) Result {
	const op = "deleteByAssist"
	if !set.HasConditions() {
		return s.fail(op, buildError("condition set has no predicate"))
	}
	if err := s.validate(set); err != nil {
		return s.fail(op, err)
	}
	sql, params := fold(text("delete from "+s.table), whereFragment(set))
	return s.ok(op, KindExec, sql, params)
}
