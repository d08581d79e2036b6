package query

import (
	"context"
	"fmt"

	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type executeQueryTool struct {
	service *Service
}

func (t *executeQueryTool) Name() string {
	return "execute_query"
}

func (t *executeQueryTool) Description() string {
	return "Execute a SQL query against the remote query service and wait for its results"
}

func (t *executeQueryTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"sql": {
				Type:        "string",
				Description: "SQL query to execute",
			},
			"database": {
				Type:        "string",
				Description: "Database name (optional, uses config default)",
			},
			"workgroup": {
				Type:        "string",
				Description: "Workgroup to run the query in (optional, uses config default)",
			},
		},
		Required: []string{"sql"},
	}
}

func (t *executeQueryTool) Validate(args map[string]interface{}) error {
	if _, ok := args["sql"].(string); !ok {
		return fmt.Errorf("sql must be a string")
	}
	return nil
}

func (t *executeQueryTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	sql := args["sql"].(string)
	database, _ := args["database"].(string)
	workgroup, _ := args["workgroup"].(string)
	return t.service.runQuery(ctx, sql, database, workgroup)
}

type getQueryExecutionTool struct {
	service *Service
}

func (t *getQueryExecutionTool) Name() string {
	return "get_query_execution"
}

func (t *getQueryExecutionTool) Description() string {
	return "Get the current state, metrics, and detail of a query execution by id"
}

func (t *getQueryExecutionTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"query_id": {
				Type:        "string",
				Description: "Query execution ID",
			},
		},
		Required: []string{"query_id"},
	}
}

func (t *getQueryExecutionTool) Validate(args map[string]interface{}) error {
	if _, ok := args["query_id"].(string); !ok {
		return fmt.Errorf("query_id must be a string")
	}
	return nil
}

func (t *getQueryExecutionTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.lookupExecution(ctx, args["query_id"].(string))
}

type listDatabasesTool struct {
	service *Service
}

func (t *listDatabasesTool) Name() string {
	return "list_databases"
}

func (t *listDatabasesTool) Description() string {
	return "List all databases available in the remote data catalog"
}

func (t *listDatabasesTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type:       "object",
		Properties: map[string]tools.ToolParameter{},
	}
}

func (t *listDatabasesTool) Validate(map[string]interface{}) error { return nil }

func (t *listDatabasesTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	return t.service.listDatabases(ctx)
}

type listTablesTool struct {
	service *Service
}

func (t *listTablesTool) Name() string {
	return "list_tables"
}

func (t *listTablesTool) Description() string {
	return "List tables in a database with their schema metadata"
}

func (t *listTablesTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"database": {
				Type:        "string",
				Description: "Database name (optional, uses config default)",
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of tables to return",
				Default:     100,
			},
		},
	}
}

func (t *listTablesTool) Validate(args map[string]interface{}) error {
	if v, present := args["limit"]; present {
		if _, ok := v.(float64); !ok {
			if _, ok := v.(int); !ok {
				return fmt.Errorf("limit must be a number")
			}
		}
	}
	return nil
}

func (t *listTablesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	database, _ := args["database"].(string)
	limit := 100
	switch v := args["limit"].(type) {
	case float64:
		limit = clampLimit(v)
	case int:
		limit = clampLimit(float64(v))
	}
	return t.service.listTables(ctx, database, limit)
}

type getTableMetadataTool struct {
	service *Service
}

func (t *getTableMetadataTool) Name() string {
	return "get_table_metadata"
}

func (t *getTableMetadataTool) Description() string {
	return "Get detailed metadata and schema information for a table"
}

func (t *getTableMetadataTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"database": {
				Type:        "string",
				Description: "Database name",
			},
			"table": {
				Type:        "string",
				Description: "Table name",
			},
		},
		Required: []string{"database", "table"},
	}
}

func (t *getTableMetadataTool) Validate(args map[string]interface{}) error {
	if _, ok := args["database"].(string); !ok {
		return fmt.Errorf("database must be a string")
	}
	if _, ok := args["table"].(string); !ok {
		return fmt.Errorf("table must be a string")
	}
	return nil
}

func (t *getTableMetadataTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.tableMetadata(ctx, args["database"].(string), args["table"].(string))
}
