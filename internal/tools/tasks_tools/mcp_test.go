package tasks_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMCPTools(t *testing.T) {
	reg, _ := newTestRegistry(t)
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	RegisterMCPTools(s, reg)

	tools := s.ListTools()
	require.Len(t, tools, 4)

	for _, name := range reg.Names() {
		st, ok := tools[name]
		require.True(t, ok, "tool %s not registered", name)

		var schema map[string]any
		require.NoError(t, json.Unmarshal(st.Tool.RawInputSchema, &schema))
		assert.Equal(t, "object", schema["type"])
	}
}

func TestRegisterMCPTools_Handlers(t *testing.T) {
	reg, _ := newTestRegistry(t)
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	RegisterMCPTools(s, reg)
	tools := s.ListTools()

	call := func(name string, args map[string]any) *mcp.CallToolResult {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := tools[name].Handler(context.Background(), req)
		require.NoError(t, err)
		return res
	}

	res := call(ToolList, map[string]any{"limit": 1})
	assert.False(t, res.IsError)
	text := res.Content[0].(mcp.TextContent).Text
	assert.Contains(t, text, `"count":1`)

	res = call(ToolCreate, map[string]any{"title": ""})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "title is required")
}
