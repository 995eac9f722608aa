// Package assist provides ConditionSet, the ordered, composable description of
// the WHERE/GROUP BY/HAVING/ORDER BY/LIMIT intent of a statement.
//
// A ConditionSet knows nothing about SQL dialects: its predicates are raw
// fragments with "?" placeholders, rendered by the statement package.
package assist

import "strings"

// Pagination defaults applied by Paginate.
const (
	DefaultPage    = 1
	DefaultRowSize = 15
)

// WhereCondition is one predicate fragment and the values it binds.
// The fragment contains exactly one placeholder when a scalar value is
// bound, or one per element of Values.
type WhereCondition struct {
	Require  string
	Value    any
	HasValue bool
	Values   []any
}

// Params returns the values bound by the condition: the scalar value first,
// then the list values.
func (c WhereCondition) Params() []any {
	params := make([]any, 0, len(c.Values)+1)
	if c.HasValue {
		params = append(params, c.Value)
	}
	return append(params, c.Values...)
}

// ConditionSet accumulates the predicates and modifiers of a statement.
// It is mutated by its owner only, before being passed to synthesis.
type ConditionSet struct {
	conditions    []WhereCondition
	join          string
	joinParams    []any
	groupBy       string
	having        string
	havingParams  []any
	orders        []string
	distinct      bool
	resultColumns string

	page     int
	rowSize  int
	startRow int
	hasStart bool
}

// New creates an empty condition set.
func New() *ConditionSet {
	return &ConditionSet{}
}

// Conditions returns the predicates in declaration order.
func (a *ConditionSet) Conditions() []WhereCondition {
	out := make([]WhereCondition, len(a.conditions))
	copy(out, a.conditions)
	return out
}

// HasConditions reports whether at least one predicate was added.
func (a *ConditionSet) HasConditions() bool {
	return a != nil && len(a.conditions) > 0
}

// Condition appends a prepared predicate as-is.
func (a *ConditionSet) Condition(c WhereCondition) *ConditionSet {
	a.conditions = append(a.conditions, c)
	return a
}

// Where appends a raw predicate binding one scalar value. The fragment must
// carry its own connector ("and ...", "or ...") unless it is the first one.
// Every "?" outside quotes in a raw fragment is a placeholder; on postgres
// the jsonb "?" operators must be written as jsonb_exists and its variants.
func (a *ConditionSet) Where(require string, value any) *ConditionSet {
	return a.Condition(WhereCondition{Require: require, Value: value, HasValue: true})
}

// WhereValues appends a raw predicate binding a list of values.
func (a *ConditionSet) WhereValues(require string, values ...any) *ConditionSet {
	return a.Condition(WhereCondition{Require: require, Values: values})
}

// WhereRaw appends a raw predicate that binds nothing.
func (a *ConditionSet) WhereRaw(require string) *ConditionSet {
	return a.Condition(WhereCondition{Require: require})
}

// Join sets the raw join or reference fragment placed after the table name.
func (a *ConditionSet) Join(fragment string, params ...any) *ConditionSet {
	a.join = fragment
	a.joinParams = params
	return a
}

// GroupBy sets the group by expression.
func (a *ConditionSet) GroupBy(expr string) *ConditionSet {
	a.groupBy = expr
	return a
}

// Having sets the having expression and its parameters.
func (a *ConditionSet) Having(expr string, params ...any) *ConditionSet {
	a.having = expr
	a.havingParams = params
	return a
}

// OrderBy appends an ordering term.
func (a *ConditionSet) OrderBy(column string, asc bool) *ConditionSet {
	dir := "desc"
	if asc {
		dir = "asc"
	}
	a.orders = append(a.orders, column+" "+dir)
	return a
}

// Distinct marks the select as distinct.
func (a *ConditionSet) Distinct() *ConditionSet {
	a.distinct = true
	return a
}

// ResultColumns overrides the selected column list.
func (a *ConditionSet) ResultColumns(columns string) *ConditionSet {
	a.resultColumns = columns
	return a
}

// Page sets the requested page, starting at 1.
func (a *ConditionSet) Page(page int) *ConditionSet {
	a.page = page
	return a
}

// RowSize sets the number of rows per page, used as LIMIT.
func (a *ConditionSet) RowSize(rowSize int) *ConditionSet {
	a.rowSize = rowSize
	return a
}

// StartRow sets the OFFSET explicitly.
func (a *ConditionSet) StartRow(startRow int) *ConditionSet {
	a.startRow = startRow
	a.hasStart = true
	return a
}

// Paginate normalizes the pagination state: page < 1 becomes 1, rowSize < 1
// becomes DefaultRowSize, and the start row is derived from both.
func (a *ConditionSet) Paginate() *ConditionSet {
	if a.page < 1 {
		a.page = DefaultPage
	}
	if a.rowSize < 1 {
		a.rowSize = DefaultRowSize
	}
	a.hasStart = true
	if a.page == 1 {
		a.startRow = 0
	} else {
		a.startRow = (a.page - 1) * a.rowSize
	}
	return a
}

// Clone returns a deep copy of the set.
func (a *ConditionSet) Clone() *ConditionSet {
	c := *a
	c.conditions = append([]WhereCondition(nil), a.conditions...)
	c.joinParams = append([]any(nil), a.joinParams...)
	c.havingParams = append([]any(nil), a.havingParams...)
	c.orders = append([]string(nil), a.orders...)
	return &c
}

// JoinFragment returns the raw join fragment and its parameters.
func (a *ConditionSet) JoinFragment() (string, []any) { return a.join, a.joinParams }

// GroupByExpr returns the group by expression.
func (a *ConditionSet) GroupByExpr() string { return a.groupBy }

// HavingExpr returns the having expression and its parameters.
func (a *ConditionSet) HavingExpr() (string, []any) { return a.having, a.havingParams }

// OrderByExpr returns the ordering terms joined by commas.
func (a *ConditionSet) OrderByExpr() string { return strings.Join(a.orders, ", ") }

// IsDistinct reports whether Distinct was called.
func (a *ConditionSet) IsDistinct() bool { return a.distinct }

// ResultColumnList returns the overriding column list, empty if none.
func (a *ConditionSet) ResultColumnList() string { return a.resultColumns }

// PageNumber returns the page.
func (a *ConditionSet) PageNumber() int { return a.page }

// RowCount returns the row size.
func (a *ConditionSet) RowCount() int { return a.rowSize }

// Offset returns the start row and whether it was set.
func (a *ConditionSet) Offset() (int, bool) { return a.startRow, a.hasStart }

// Fragments returns every raw SQL fragment of the set, for validation.
func (a *ConditionSet) Fragments() []string {
	frags := make([]string, 0, len(a.conditions)+5)
	for _, c := range a.conditions {
		frags = append(frags, c.Require)
	}
	return append(frags, a.join, a.groupBy, a.having, a.OrderByExpr(), a.resultColumns)
}
