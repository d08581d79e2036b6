// Package tools defines the tool contract surface: a registry of named,
// schema-described capabilities and a dispatcher that turns every
// invocation (including misuse and handler panics) into exactly one
// normalized response envelope.
package tools

import "context"

// Tool is a named capability invocable by a calling agent.
type Tool interface {
	// Name returns the tool name
	Name() string
	// Description returns the tool description
	Description() string
	// Parameters returns the tool parameters schema
	Parameters() ToolParameters
	// Validate checks the arguments beyond required-field presence
	Validate(args map[string]interface{}) error
	// Execute runs the tool and returns its payload
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// ToolParameters describes the input schema for a tool.
type ToolParameters struct {
	Type       string                   `json:"type"`
	Properties map[string]ToolParameter `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

// ToolParameter describes a single parameter.
type ToolParameter struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Enum        []string    `json:"enum,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}
