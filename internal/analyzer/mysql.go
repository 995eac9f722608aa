package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

type mysqlAnalyzer struct{}

func (mysqlAnalyzer) Explain(ctx context.Context, q Querier, query string, args []any) (*Plan, error) {
	raw, err := scanSingle(ctx, q, "explain format=json "+query, args)
	if err != nil {
		return nil, err
	}
	plan, err := parseMySQL(raw)
	if err != nil {
		return nil, err
	}
	plan.Raw = raw
	return plan, nil
}

type mysqlTable struct {
	AccessType   string `json:"access_type"`
	Key          string `json:"key"`
	RowsExamined int64  `json:"rows_examined_per_scan"`
}

// mysqlBlock covers the query_block node and the grouping and ordering
// operations nested in it, which share the table and nested_loop keys.
type mysqlBlock struct {
	CostInfo struct {
		QueryCost string `json:"query_cost"`
	} `json:"cost_info"`
	Table      *mysqlTable `json:"table"`
	NestedLoop []struct {
		Table *mysqlTable `json:"table"`
	} `json:"nested_loop"`
	Grouping *mysqlBlock `json:"grouping_operation"`
	Ordering *mysqlBlock `json:"ordering_operation"`
}

func parseMySQL(raw string) (*Plan, error) {
	var root struct {
		QueryBlock mysqlBlock `json:"query_block"`
	}
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil, fmt.Errorf("explain: parse mysql plan: %w", err)
	}
	plan := &Plan{Database: "mysql"}
	if cost, err := strconv.ParseFloat(root.QueryBlock.CostInfo.QueryCost, 64); err == nil {
		plan.Cost = cost
	}
	walkMySQL(&root.QueryBlock, plan)
	return plan, nil
}

func walkMySQL(block *mysqlBlock, plan *Plan) {
	if block == nil {
		return
	}
	addMySQLTable(block.Table, plan)
	for _, loop := range block.NestedLoop {
		addMySQLTable(loop.Table, plan)
	}
	walkMySQL(block.Grouping, plan)
	walkMySQL(block.Ordering, plan)
}

func addMySQLTable(t *mysqlTable, plan *Plan) {
	if t == nil {
		return
	}
	if t.Key != "" {
		plan.UsesIndex = true
		if plan.IndexName == "" {
			plan.IndexName = t.Key
		}
	}
	if t.AccessType == "ALL" {
		plan.FullScan = true
	}
	plan.EstimatedRows += t.RowsExamined
}
