package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type postgresAnalyzer struct{}

func (postgresAnalyzer) Explain(ctx context.Context, q Querier, query string, args []any) (*Plan, error) {
	raw, err := scanSingle(ctx, q, "explain (format json) "+query, args)
	if err != nil {
		return nil, err
	}
	plan, err := parsePostgres(raw)
	if err != nil {
		return nil, err
	}
	plan.Raw = raw
	return plan, nil
}

type postgresNode struct {
	NodeType  string         `json:"Node Type"`
	IndexName string         `json:"Index Name"`
	TotalCost float64        `json:"Total Cost"`
	PlanRows  int64          `json:"Plan Rows"`
	Plans     []postgresNode `json:"Plans"`
}

func parsePostgres(raw string) (*Plan, error) {
	var roots []struct {
		Plan postgresNode `json:"Plan"`
	}
	if err := json.Unmarshal([]byte(raw), &roots); err != nil {
		return nil, fmt.Errorf("explain: parse postgres plan: %w", err)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("explain: empty postgres plan")
	}
	root := roots[0].Plan
	plan := &Plan{Database: "postgres", Cost: root.TotalCost, EstimatedRows: root.PlanRows}
	walkPostgres(&root, plan)
	return plan, nil
}

func walkPostgres(node *postgresNode, plan *Plan) {
	if strings.Contains(node.NodeType, "Index") {
		plan.UsesIndex = true
		if plan.IndexName == "" {
			plan.IndexName = node.IndexName
		}
	}
	if node.NodeType == "Seq Scan" {
		plan.FullScan = true
	}
	for i := range node.Plans {
		walkPostgres(&node.Plans[i], plan)
	}
}
