package square

import (
	"context"
	"fmt"

	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type listLocationsTool struct {
	service *Service
}

func (t *listLocationsTool) Name() string { return "list_locations" }

func (t *listLocationsTool) Description() string {
	return "List all Square business locations"
}

func (t *listLocationsTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type:       "object",
		Properties: map[string]tools.ToolParameter{},
	}
}

func (t *listLocationsTool) Validate(map[string]interface{}) error { return nil }

func (t *listLocationsTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	return t.service.listLocations(ctx)
}

type listOrdersTool struct {
	service *Service
}

func (t *listOrdersTool) Name() string { return "list_orders" }

func (t *listOrdersTool) Description() string {
	return "List recent orders for a location with amount breakdowns"
}

func (t *listOrdersTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"location_id": {Type: "string", Description: "Square location ID"},
			"limit":       {Type: "integer", Description: "Maximum number of orders to return", Default: 100},
		},
		Required: []string{"location_id"},
	}
}

func (t *listOrdersTool) Validate(args map[string]interface{}) error {
	if _, ok := args["location_id"].(string); !ok {
		return fmt.Errorf("location_id must be a string")
	}
	return nil
}

func (t *listOrdersTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	limit := 100
	switch v := args["limit"].(type) {
	case float64:
		limit = int(v)
	case int:
		limit = v
	}
	return t.service.listOrders(ctx, args["location_id"].(string), limit)
}

type salesSummaryTool struct {
	service *Service
}

func (t *salesSummaryTool) Name() string { return "get_sales_summary" }

func (t *salesSummaryTool) Description() string {
	return "Summarize sales for a location over the last N days"
}

func (t *salesSummaryTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"location_id": {Type: "string", Description: "Square location ID"},
			"days":        {Type: "integer", Description: "Number of days to include", Default: 7},
		},
		Required: []string{"location_id"},
	}
}

func (t *salesSummaryTool) Validate(args map[string]interface{}) error {
	if _, ok := args["location_id"].(string); !ok {
		return fmt.Errorf("location_id must be a string")
	}
	return nil
}

func (t *salesSummaryTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	days := 7
	switch v := args["days"].(type) {
	case float64:
		days = int(v)
	case int:
		days = v
	}
	return t.service.salesSummary(ctx, args["location_id"].(string), days)
}
