package cmd

import (
	"context"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/tasksagent/internal/tools/tasks_tools"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task tools over MCP (stdio)",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout that exposes
tasks.list, tasks.create, tasks.update and tasks.delete to an MCP client.
No language model is used; the client drives the tools directly.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol, logs go to stderr
	logger, err := setupLogging(cmd.ErrOrStderr(), opts)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), opts, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	logger.Info("Serving task tools over stdio", slog.Any("tools", a.tools.Names()))
	return runStdioServer(newMCPServer(a.tools))
}

func newMCPServer(reg *tasks_tools.Registry) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("tasksagent", version,
		mcpserver.WithToolCapabilities(true),
	)
	tasks_tools.RegisterMCPTools(mcpSrv, reg)
	return mcpSrv
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
