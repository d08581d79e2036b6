package mcpserver

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/liliang-cn/toolbridge/pkg/tools"
)

// schemaFor converts the registry's parameter description into the JSON
// schema the MCP SDK advertises for the tool.
func schemaFor(params tools.ToolParameters) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(params.Properties))
	for name, param := range params.Properties {
		prop := &jsonschema.Schema{
			Type:        param.Type,
			Description: param.Description,
		}
		for _, value := range param.Enum {
			prop.Enum = append(prop.Enum, value)
		}
		if param.Default != nil {
			if encoded, err := json.Marshal(param.Default); err == nil {
				prop.Default = json.RawMessage(encoded)
			}
		}
		properties[name] = prop
	}

	schemaType := params.Type
	if schemaType == "" {
		schemaType = "object"
	}
	return &jsonschema.Schema{
		Type:       schemaType,
		Properties: properties,
		Required:   params.Required,
	}
}
