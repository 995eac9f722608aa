package assist

import "strings"

// connector returns the prefix of the next predicate: empty for the first one.
func (a *ConditionSet) connector(op string) string {
	if len(a.conditions) == 0 {
		return ""
	}
	return op + " "
}

func (a *ConditionSet) scalar(op, column, cmp string, value any) *ConditionSet {
	return a.Condition(WhereCondition{
		Require:  a.connector(op) + column + " " + cmp + " ?",
		Value:    value,
		HasValue: true,
	})
}

func (a *ConditionSet) bare(op, column, suffix string) *ConditionSet {
	return a.Condition(WhereCondition{Require: a.connector(op) + column + " " + suffix})
}

func (a *ConditionSet) list(op, column, cmp string, values []any) *ConditionSet {
	if len(values) == 0 {
		// an empty IN matches nothing; an empty NOT IN matches everything
		if cmp == "in" {
			return a.Condition(WhereCondition{Require: a.connector(op) + "1 = 0"})
		}
		return a.Condition(WhereCondition{Require: a.connector(op) + "1 = 1"})
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return a.Condition(WhereCondition{
		Require: a.connector(op) + column + " " + cmp + " (" + marks + ")",
		Values:  append([]any(nil), values...),
	})
}

func (a *ConditionSet) between(op, column string, low, high any) *ConditionSet {
	return a.Condition(WhereCondition{
		Require: a.connector(op) + column + " between ? and ?",
		Values:  []any{low, high},
	})
}

// AndEq appends "and column = ?".
func (a *ConditionSet) AndEq(column string, value any) *ConditionSet {
	return a.scalar("and", column, "=", value)
}

// OrEq appends "or column = ?".
func (a *ConditionSet) OrEq(column string, value any) *ConditionSet {
	return a.scalar("or", column, "=", value)
}

// AndNeq appends "and column <> ?".
func (a *ConditionSet) AndNeq(column string, value any) *ConditionSet {
	return a.scalar("and", column, "<>", value)
}

// OrNeq appends "or column <> ?".
func (a *ConditionSet) OrNeq(column string, value any) *ConditionSet {
	return a.scalar("or", column, "<>", value)
}

// AndLt appends "and column < ?".
func (a *ConditionSet) AndLt(column string, value any) *ConditionSet {
	return a.scalar("and", column, "<", value)
}

// OrLt appends "or column < ?".
func (a *ConditionSet) OrLt(column string, value any) *ConditionSet {
	return a.scalar("or", column, "<", value)
}

// AndLte appends "and column <= ?".
func (a *ConditionSet) AndLte(column string, value any) *ConditionSet {
	return a.scalar("and", column, "<=", value)
}

// OrLte appends "or column <= ?".
func (a *ConditionSet) OrLte(column string, value any) *ConditionSet {
	return a.scalar("or", column, "<=", value)
}

// AndGt appends "and column > ?".
func (a *ConditionSet) AndGt(column string, value any) *ConditionSet {
	return a.scalar("and", column, ">", value)
}

// OrGt appends "or column > ?".
func (a *ConditionSet) OrGt(column string, value any) *ConditionSet {
	return a.scalar("or", column, ">", value)
}

// AndGte appends "and column >= ?".
func (a *ConditionSet) AndGte(column string, value any) *ConditionSet {
	return a.scalar("and", column, ">=", value)
}

// OrGte appends "or column >= ?".
func (a *ConditionSet) OrGte(column string, value any) *ConditionSet {
	return a.scalar("or", column, ">=", value)
}

// AndLike appends "and column like ?". The pattern is bound as given.
func (a *ConditionSet) AndLike(column string, pattern string) *ConditionSet {
	return a.scalar("and", column, "like", pattern)
}

// OrLike appends "or column like ?".
func (a *ConditionSet) OrLike(column string, pattern string) *ConditionSet {
	return a.scalar("or", column, "like", pattern)
}

// AndNotLike appends "and column not like ?".
func (a *ConditionSet) AndNotLike(column string, pattern string) *ConditionSet {
	return a.scalar("and", column, "not like", pattern)
}

// OrNotLike appends "or column not like ?".
func (a *ConditionSet) OrNotLike(column string, pattern string) *ConditionSet {
	return a.scalar("or", column, "not like", pattern)
}

// AndIn appends "and column in (?, ...)".
func (a *ConditionSet) AndIn(column string, values ...any) *ConditionSet {
	return a.list("and", column, "in", values)
}

// OrIn appends "or column in (?, ...)".
func (a *ConditionSet) OrIn(column string, values ...any) *ConditionSet {
	return a.list("or", column, "in", values)
}

// AndNotIn appends "and column not in (?, ...)".
func (a *ConditionSet) AndNotIn(column string, values ...any) *ConditionSet {
	return a.list("and", column, "not in", values)
}

// OrNotIn appends "or column not in (?, ...)".
func (a *ConditionSet) OrNotIn(column string, values ...any) *ConditionSet {
	return a.list("or", column, "not in", values)
}

// AndIsNull appends "and column is null".
func (a *ConditionSet) AndIsNull(column string) *ConditionSet {
	return a.bare("and", column, "is null")
}

// OrIsNull appends "or column is null".
func (a *ConditionSet) OrIsNull(column string) *ConditionSet {
	return a.bare("or", column, "is null")
}

// AndIsNotNull appends "and column is not null".
func (a *ConditionSet) AndIsNotNull(column string) *ConditionSet {
	return a.bare("and", column, "is not null")
}

// OrIsNotNull appends "or column is not null".
func (a *ConditionSet) OrIsNotNull(column string) *ConditionSet {
	return a.bare("or", column, "is not null")
}

// AndBetween appends "and column between ? and ?".
func (a *ConditionSet) AndBetween(column string, low, high any) *ConditionSet {
	return a.between("and", column, low, high)
}

// OrBetween appends "or column between ? and ?".
func (a *ConditionSet) OrBetween(column string, low, high any) *ConditionSet {
	return a.between("or", column, low, high)
}
