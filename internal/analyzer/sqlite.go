package analyzer

import (
	"context"
	"fmt"
	"strings"
)

type sqliteAnalyzer struct{}

// Explain runs "explain query plan", whose rows are (id, parent, notused,
// detail). SQLite reports neither cost nor row estimates.
func (sqliteAnalyzer) Explain(ctx context.Context, q Querier, query string, args []any) (plan *Plan, err error) {
	rows, err := q.QueryContext(ctx, "explain query plan "+query, args...)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var lines []string
	for rows.Next() {
		var id, parent, notused int
		var detail string
		if err := rows.Scan(&id, &parent, &notused, &detail); err != nil {
			return nil, fmt.Errorf("explain: %w", err)
		}
		lines = append(lines, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	plan = parseSQLite(lines)
	plan.Raw = strings.Join(lines, "\n")
	return plan, nil
}

func parseSQLite(lines []string) *Plan {
	plan := &Plan{Database: "sqlite"}
	for _, line := range lines {
		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.Contains(upper, "USING INTEGER PRIMARY KEY"):
			plan.UsesIndex = true
			setIndexName(plan, "PRIMARY KEY")
		case strings.Contains(upper, "USING COVERING INDEX "):
			plan.UsesIndex = true
			setIndexName(plan, indexAfter(line, "USING COVERING INDEX "))
		case strings.Contains(upper, "USING INDEX "):
			plan.UsesIndex = true
			setIndexName(plan, indexAfter(line, "USING INDEX "))
		case strings.Contains(upper, "USING AUTOMATIC"):
			plan.UsesIndex = true
			setIndexName(plan, "AUTOMATIC INDEX")
		case strings.HasPrefix(upper, "SCAN "):
			plan.FullScan = true
		}
	}
	return plan
}

func setIndexName(plan *Plan, name string) {
	if plan.IndexName == "" {
		plan.IndexName = name
	}
}

// indexAfter returns the word following marker in line, matched case-insensitively.
func indexAfter(line, marker string) string {
	i := strings.Index(strings.ToUpper(line), marker)
	if i < 0 {
		return ""
	}
	rest := strings.TrimSpace(line[i+len(marker):])
	if end := strings.IndexAny(rest, " ("); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
