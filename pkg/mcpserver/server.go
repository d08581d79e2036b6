// Package mcpserver exposes the tool registry over the Model Context
// Protocol. Every tools/call response is the dispatcher's envelope
// serialized as a single JSON text content block, so the calling agent sees
// one uniform shape for success and failure alike.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/liliang-cn/toolbridge/pkg/log"
	"github.com/liliang-cn/toolbridge/pkg/tools"
)

// Server serves the registry over stdio.
type Server struct {
	name       string
	version    string
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	logger     *slog.Logger
}

// New creates a server for the given registry and dispatcher.
func New(name, version string, registry *tools.Registry, dispatcher *tools.Dispatcher) *Server {
	return &Server{
		name:       name,
		version:    version,
		registry:   registry,
		dispatcher: dispatcher,
		logger:     log.WithComponent("mcpserver"),
	}
}

// Run registers every tool and serves MCP over stdin/stdout until ctx is
// cancelled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    s.name,
		Version: s.version,
	}, nil)

	for _, tool := range s.registry.List() {
		server.AddTool(&mcp.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: schemaFor(tool.Parameters()),
		}, s.handlerFor(tool.Name()))
	}

	s.logger.Info("serving MCP over stdio", "name", s.name, "tools", s.registry.Count())
	return server.Run(ctx, &mcp.StdioTransport{})
}

// handlerFor adapts one registered tool to the SDK handler signature. The
// dispatcher already guarantees an envelope for every outcome, so the only
// error this handler can return is a marshalling failure of the envelope
// itself.
func (s *Server) handlerFor(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]interface{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, fmt.Errorf("invalid arguments for tool '%s': %w", name, err)
			}
		}

		envelope := s.dispatcher.Invoke(ctx, name, args)

		text, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode envelope for tool '%s': %w", name, err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(text)},
			},
		}, nil
	}
}
