// Package tasks_tools exposes the task backend as model-callable tools.
//
// # Available Tools
//
//   - tasks.list: List tasks (limit 1-100, default 20)
//   - tasks.create: Create a task with a title and optional notes and due date
//   - tasks.update: Change selected fields of a task
//   - tasks.delete: Delete a task
//
// Every tool returns a Result envelope. Arguments are validated before the
// backend is contacted, and backend errors are turned into failed results, so
// callers never see a Go error from a tool.
//
// The same Registry backs the agent loop and the MCP stdio server
// (RegisterMCPTools).
package tasks_tools
