package statement

import (
	"strings"

	"github.com/coregx/sqlassist/internal/assist"
)

// fragment is one piece of statement text with the values its placeholders
// bind, in order.
type fragment struct {
	text   string
	params []any
}

func text(s string) fragment { return fragment{text: s} }

// fold joins non-empty fragments with single spaces and concatenates their
// parameters in the same order.
func fold(frags ...fragment) (string, []any) {
	var sb strings.Builder
	params := make([]any, 0, len(frags))
	for _, f := range frags {
		if f.text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.text)
		params = append(params, f.params...)
	}
	return sb.String(), params
}

// placeholders returns "?, ?, ..." for n values.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// whereFragment renders the predicates of set after a single where keyword.
func whereFragment(set *assist.ConditionSet) fragment {
	if !set.HasConditions() {
		return fragment{}
	}
	conds := set.Conditions()
	parts := make([]string, len(conds))
	var params []any
	for i, c := range conds {
		parts[i] = c.Require
		params = append(params, c.Params()...)
	}
	return fragment{text: "where " + strings.Join(parts, " "), params: params}
}

func joinFragment(set *assist.ConditionSet) fragment {
	if set == nil {
		return fragment{}
	}
	join, params := set.JoinFragment()
	return fragment{text: join, params: params}
}

func groupByFragment(set *assist.ConditionSet) fragment {
	if set == nil || set.GroupByExpr() == "" {
		return fragment{}
	}
	return text("group by " + set.GroupByExpr())
}

func havingFragment(set *assist.ConditionSet) fragment {
	having, params := set.HavingExpr()
	if having == "" {
		return fragment{}
	}
	return fragment{text: "having " + having, params: params}
}

func orderByFragment(set *assist.ConditionSet) fragment {
	if order := set.OrderByExpr(); order != "" {
		return text("order by " + order)
	}
	return fragment{}
}

// pageFragments renders limit when a row size is set, and offset when a start
// row is set as well.
func pageFragments(set *assist.ConditionSet) []fragment {
	rows := set.RowCount()
	if rows <= 0 {
		return nil
	}
	frags := []fragment{{text: "limit ?", params: []any{rows}}}
	if start, ok := set.Offset(); ok {
		frags = append(frags, fragment{text: "offset ?", params: []any{start}})
	}
	return frags
}
