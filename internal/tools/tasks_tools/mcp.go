package tasks_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools exposes every tool in reg on the MCP server. The tool
// envelope is returned as text; failed envelopes are marked as MCP errors.
func RegisterMCPTools(s *mcpserver.MCPServer, reg *Registry) {
	for _, tool := range reg.Tools() {
		name := tool.Name
		s.AddTool(
			mcp.NewToolWithRawSchema(name, tool.Description, tool.RawSchema()),
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				result := reg.Invoke(ctx, name, request.GetArguments())
				if !result.OK {
					return mcp.NewToolResultError(result.String()), nil
				}
				return mcp.NewToolResultText(result.String()), nil
			},
		)
	}
}
