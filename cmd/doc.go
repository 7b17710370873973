// Package cmd implements the command-line interface for tasksagent.
//
// This package provides the following commands:
//   - ask: Run one natural-language request against your tasks
//   - serve: Start the HTTP API
//   - mcp: Serve the task tools over MCP (stdio)
//   - generate-docs: Generate markdown documentation for the task tools
//   - version: Display version information
//
// The ask command is the default: any arguments that are not a subcommand
// are treated as the request text.
package cmd
