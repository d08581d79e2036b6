package plaid

import (
	"context"
	"fmt"

	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type listAccountsTool struct {
	service *Service
}

func (t *listAccountsTool) Name() string { return "get_accounts" }

func (t *listAccountsTool) Description() string {
	return "Get all connected bank accounts with balances and a type breakdown"
}

func (t *listAccountsTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type:       "object",
		Properties: map[string]tools.ToolParameter{},
	}
}

func (t *listAccountsTool) Validate(map[string]interface{}) error { return nil }

func (t *listAccountsTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	return t.service.listAccounts(ctx)
}

type listTransactionsTool struct {
	service *Service
}

func (t *listTransactionsTool) Name() string { return "get_transactions" }

func (t *listTransactionsTool) Description() string {
	return "Get transaction history for an account with category and amount analysis"
}

func (t *listTransactionsTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"account_id": {Type: "string", Description: "Account identifier"},
			"start_date": {Type: "string", Description: "Start date (YYYY-MM-DD)"},
			"end_date":   {Type: "string", Description: "End date (YYYY-MM-DD)"},
			"count":      {Type: "integer", Description: "Number of transactions to retrieve", Default: 100},
		},
		Required: []string{"account_id", "start_date", "end_date"},
	}
}

func (t *listTransactionsTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "account_id", "start_date", "end_date")
}

func (t *listTransactionsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.listTransactions(ctx,
		args["account_id"].(string),
		args["start_date"].(string),
		args["end_date"].(string),
		countArg(args, 100))
}

type accountBalancesTool struct {
	service *Service
}

func (t *accountBalancesTool) Name() string { return "get_balances" }

func (t *accountBalancesTool) Description() string {
	return "Get current account balances, available funds, and credit utilization"
}

func (t *accountBalancesTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"account_id": {Type: "string", Description: "Account identifier"},
		},
		Required: []string{"account_id"},
	}
}

func (t *accountBalancesTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "account_id")
}

func (t *accountBalancesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.accountBalances(ctx, args["account_id"].(string))
}

type accountIdentityTool struct {
	service *Service
}

func (t *accountIdentityTool) Name() string { return "get_identity" }

func (t *accountIdentityTool) Description() string {
	return "Get account holder identity information"
}

func (t *accountIdentityTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"account_id": {Type: "string", Description: "Account identifier"},
		},
		Required: []string{"account_id"},
	}
}

func (t *accountIdentityTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "account_id")
}

func (t *accountIdentityTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.accountIdentity(ctx, args["account_id"].(string))
}

type analyzeSpendingTool struct {
	service *Service
}

func (t *analyzeSpendingTool) Name() string { return "analyze_spending" }

func (t *analyzeSpendingTool) Description() string {
	return "Analyze spending patterns: totals, top categories and merchants, largest purchases"
}

func (t *analyzeSpendingTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"account_id": {Type: "string", Description: "Account identifier"},
			"start_date": {Type: "string", Description: "Start date for analysis (YYYY-MM-DD)"},
			"end_date":   {Type: "string", Description: "End date for analysis (YYYY-MM-DD)"},
		},
		Required: []string{"account_id", "start_date", "end_date"},
	}
}

func (t *analyzeSpendingTool) Validate(args map[string]interface{}) error {
	return requireStrings(args, "account_id", "start_date", "end_date")
}

func (t *analyzeSpendingTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.analyzeSpending(ctx,
		args["account_id"].(string),
		args["start_date"].(string),
		args["end_date"].(string))
}

func requireStrings(args map[string]interface{}, names ...string) error {
	for _, name := range names {
		if _, ok := args[name].(string); !ok {
			return fmt.Errorf("%s must be a string", name)
		}
	}
	return nil
}

// countArg reads the optional count argument, clamped to the gateway's
// 1..500 window.
func countArg(args map[string]interface{}, def int) int {
	count := def
	switch v := args["count"].(type) {
	case float64:
		count = int(v)
	case int:
		count = v
	}
	if count < 1 {
		count = 1
	}
	if count > maxTransactionCount {
		count = maxTransactionCount
	}
	return count
}
