package h2o

import (
	"context"
	"fmt"

	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type connectTool struct {
	service *Service
}

func (t *connectTool) Name() string { return "connect_to_cluster" }

func (t *connectTool) Description() string {
	return "Verify connectivity to the H2O cluster and return its session info"
}

func (t *connectTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type:       "object",
		Properties: map[string]tools.ToolParameter{},
	}
}

func (t *connectTool) Validate(map[string]interface{}) error { return nil }

func (t *connectTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	session, _, err := t.service.connect(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"session": session}, nil
}

type clusterStatusTool struct {
	service *Service
}

func (t *clusterStatusTool) Name() string { return "get_cluster_status" }

func (t *clusterStatusTool) Description() string {
	return "Get cluster health, node membership, and version information"
}

func (t *clusterStatusTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type:       "object",
		Properties: map[string]tools.ToolParameter{},
	}
}

func (t *clusterStatusTool) Validate(map[string]interface{}) error { return nil }

func (t *clusterStatusTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	return t.service.clusterStatus(ctx)
}

type listModelsTool struct {
	service *Service
}

func (t *listModelsTool) Name() string { return "list_models" }

func (t *listModelsTool) Description() string {
	return "List machine learning models on the cluster grouped by algorithm"
}

func (t *listModelsTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type:       "object",
		Properties: map[string]tools.ToolParameter{},
	}
}

func (t *listModelsTool) Validate(map[string]interface{}) error { return nil }

func (t *listModelsTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	return t.service.listModels(ctx)
}

type listFramesTool struct {
	service *Service
}

func (t *listFramesTool) Name() string { return "list_frames" }

func (t *listFramesTool) Description() string {
	return "List data frames loaded on the cluster"
}

func (t *listFramesTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"limit": {Type: "integer", Description: "Maximum number of frames to return", Default: 50},
		},
	}
}

func (t *listFramesTool) Validate(map[string]interface{}) error { return nil }

func (t *listFramesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	limit := 50
	switch v := args["limit"].(type) {
	case float64:
		limit = int(v)
	case int:
		limit = v
	}
	return t.service.listFrames(ctx, limit)
}

type modelDetailsTool struct {
	service *Service
}

func (t *modelDetailsTool) Name() string { return "get_model_details" }

func (t *modelDetailsTool) Description() string {
	return "Get full detail for a model by id"
}

func (t *modelDetailsTool) Parameters() tools.ToolParameters {
	return tools.ToolParameters{
		Type: "object",
		Properties: map[string]tools.ToolParameter{
			"model_id": {Type: "string", Description: "The model ID to inspect"},
		},
		Required: []string{"model_id"},
	}
}

func (t *modelDetailsTool) Validate(args map[string]interface{}) error {
	if _, ok := args["model_id"].(string); !ok {
		return fmt.Errorf("model_id must be a string")
	}
	return nil
}

func (t *modelDetailsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.service.modelDetails(ctx, args["model_id"].(string))
}
