package tasks_tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tasksagent/internal/instrumentation"
	"github.com/teemow/tasksagent/internal/tasks"
)

// countingBackend records which backend operations were reached.
type countingBackend struct {
	tasks.Backend

	mu    sync.Mutex
	calls []string
	err   error
}

func (b *countingBackend) record(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, op)
	return b.err
}

func (b *countingBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *countingBackend) List(ctx context.Context, limit int) ([]tasks.Task, error) {
	if err := b.record("list"); err != nil {
		return nil, err
	}
	return b.Backend.List(ctx, limit)
}

func (b *countingBackend) Create(ctx context.Context, in tasks.TaskInput) (*tasks.Task, error) {
	if err := b.record("create"); err != nil {
		return nil, err
	}
	return b.Backend.Create(ctx, in)
}

func (b *countingBackend) Update(ctx context.Context, id string, p tasks.TaskPatch) (*tasks.Task, error) {
	if err := b.record("update"); err != nil {
		return nil, err
	}
	return b.Backend.Update(ctx, id, p)
}

func (b *countingBackend) Delete(ctx context.Context, id string) error {
	if err := b.record("delete"); err != nil {
		return err
	}
	return b.Backend.Delete(ctx, id)
}

var seedUpdated = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *countingBackend) {
	t.Helper()
	backend := &countingBackend{Backend: tasks.NewMemoryBackend(
		tasks.Task{ID: "t1", Title: "Buy bread", Status: tasks.StatusNeedsAction, Updated: seedUpdated},
		tasks.Task{ID: "t2", Title: "Call mom", Status: tasks.StatusCompleted, Notes: "Sunday", Updated: seedUpdated},
	)}
	reg, err := NewRegistry(backend, opts...)
	require.NoError(t, err)
	return reg, backend
}

func decode(t *testing.T, r Result) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.String()), &out))
	return out
}

func TestRegistry_Names(t *testing.T) {
	reg, _ := newTestRegistry(t)
	assert.Equal(t, []string{ToolList, ToolCreate, ToolUpdate, ToolDelete}, reg.Names())

	tool, ok := reg.Lookup(ToolUpdate)
	require.True(t, ok)
	assert.Equal(t, instrumentation.OperationUpdate, tool.Operation)

	_, ok = reg.Lookup("tasks.move")
	assert.False(t, ok)
}

func TestRegistry_Schemas(t *testing.T) {
	reg, _ := newTestRegistry(t)

	tests := []struct {
		tool     string
		required []any
		props    []string
	}{
		{ToolList, nil, []string{"limit"}},
		{ToolCreate, []any{"title"}, []string{"title", "notes", "due"}},
		{ToolUpdate, []any{"task_id"}, []string{"task_id", "title", "notes", "due", "status"}},
		{ToolDelete, []any{"task_id"}, []string{"task_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool, ok := reg.Lookup(tt.tool)
			require.True(t, ok)

			params := tool.Parameters()
			assert.Equal(t, "object", params["type"])
			assert.NotContains(t, params, "$schema")
			assert.Equal(t, false, params["additionalProperties"])

			props, ok := params["properties"].(map[string]any)
			require.True(t, ok)
			for _, p := range tt.props {
				assert.Contains(t, props, p)
			}
			if tt.required == nil {
				assert.Empty(t, params["required"])
			} else {
				assert.Equal(t, tt.required, params["required"])
			}
		})
	}

	update, _ := reg.Lookup(ToolUpdate)
	status := update.Parameters()["properties"].(map[string]any)["status"].(map[string]any)
	assert.Equal(t, []any{"needsAction", "completed"}, status["enum"])
}

func TestInvoke_UnknownTool(t *testing.T) {
	reg, backend := newTestRegistry(t)

	r := reg.Invoke(context.Background(), "tasks.move", map[string]any{"task_id": "t1"})
	assert.False(t, r.OK)
	assert.Equal(t, "tool not found: tasks.move", r.Error)
	assert.Empty(t, backend.Calls())

	assert.Equal(t, map[string]any{"ok": false, "error": "tool not found: tasks.move"}, decode(t, r))
}

func TestInvoke_List(t *testing.T) {
	reg, _ := newTestRegistry(t)

	r := reg.Invoke(context.Background(), ToolList, map[string]any{"limit": float64(20)})
	require.True(t, r.OK, r.Error)

	out := decode(t, r)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, float64(2), out["count"])
	assert.Equal(t, "Found 2 task(s)", out["message"])

	items := out["tasks"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{
		"id":      "t1",
		"title":   "Buy bread",
		"status":  "needsAction",
		"updated": "2025-03-01T12:00:00Z",
	}, items[0])
	assert.Equal(t, "Sunday", items[1].(map[string]any)["notes"])
}

func TestInvoke_ListIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	first := reg.Invoke(ctx, ToolList, map[string]any{"limit": 5})
	second := reg.Invoke(ctx, ToolList, map[string]any{"limit": 5})
	assert.Equal(t, first.String(), second.String())
}

func TestInvoke_ListDefaultLimit(t *testing.T) {
	reg, _ := newTestRegistry(t)
	r := reg.Invoke(context.Background(), ToolList, nil)
	require.True(t, r.OK)
	assert.Equal(t, 2, r.Data["count"])
}

func TestInvoke_Create(t *testing.T) {
	reg, backend := newTestRegistry(t)

	r := reg.Invoke(context.Background(), ToolCreate, map[string]any{
		"title": "Buy milk",
		"notes": "2 liters",
		"due":   "2025-04-01T00:00:00Z",
	})
	require.True(t, r.OK, r.Error)

	view := r.Data["task"].(TaskView)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Buy milk", view.Title)
	assert.Equal(t, "2 liters", view.Notes)
	assert.Equal(t, "2025-04-01T00:00:00Z", view.Due)
	assert.Equal(t, tasks.StatusNeedsAction, view.Status)
	assert.Equal(t, []string{"create"}, backend.Calls())
}

func TestInvoke_UpdateAndDelete(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	r := reg.Invoke(ctx, ToolUpdate, map[string]any{"task_id": "t1", "status": "completed"})
	require.True(t, r.OK, r.Error)
	view := r.Data["task"].(TaskView)
	assert.Equal(t, tasks.StatusCompleted, view.Status)
	assert.Equal(t, "Buy bread", view.Title)

	r = reg.Invoke(ctx, ToolDelete, map[string]any{"task_id": "t1"})
	require.True(t, r.OK, r.Error)
	assert.Equal(t, "t1", decode(t, r)["task_id"])

	r = reg.Invoke(ctx, ToolDelete, map[string]any{"task_id": "t1"})
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "Failed to delete task")
	assert.Contains(t, r.Error, "not found")
}

func TestInvoke_EmptyDueIsUnset(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	r := reg.Invoke(ctx, ToolCreate, map[string]any{"title": "Water plants", "due": ""})
	require.True(t, r.OK, r.Error)
	assert.Empty(t, r.Data["task"].(TaskView).Due)

	r = reg.Invoke(ctx, ToolUpdate, map[string]any{"task_id": "t1", "title": "Buy rye bread", "due": ""})
	require.True(t, r.OK, r.Error)
	view := r.Data["task"].(TaskView)
	assert.Equal(t, "Buy rye bread", view.Title)
	assert.Empty(t, view.Due)
}

func TestInvoke_ValidationPrecedesBackend(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr string
	}{
		{"create empty title", ToolCreate, map[string]any{"title": ""}, "title is required"},
		{"create blank title", ToolCreate, map[string]any{"title": "   "}, "title is required"},
		{"create missing title", ToolCreate, map[string]any{}, "title is required"},
		{"create bad due", ToolCreate, map[string]any{"title": "x", "due": "tomorrow"}, "RFC3339"},
		{"list limit zero", ToolList, map[string]any{"limit": 0}, "limit must be between 1 and 100"},
		{"list limit too large", ToolList, map[string]any{"limit": 101}, "limit must be between 1 and 100"},
		{"list limit wrong type", ToolList, map[string]any{"limit": "ten"}, "invalid arguments"},
		{"update no fields", ToolUpdate, map[string]any{"task_id": "t1"}, "at least one field"},
		{"update bad status", ToolUpdate, map[string]any{"task_id": "t1", "status": "done"}, "status must be one of"},
		{"update missing id", ToolUpdate, map[string]any{"title": "x"}, "task_id is required"},
		{"update empty title", ToolUpdate, map[string]any{"task_id": "t1", "title": ""}, "title must not be empty"},
		{"update bad due", ToolUpdate, map[string]any{"task_id": "t1", "due": "2025-13-01"}, "RFC3339"},
		{"update empty due only", ToolUpdate, map[string]any{"task_id": "t1", "due": ""}, "at least one field"},
		{"delete missing id", ToolDelete, map[string]any{}, "task_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, backend := newTestRegistry(t)

			r := reg.Invoke(context.Background(), tt.tool, tt.args)
			assert.False(t, r.OK)
			assert.Contains(t, r.Error, tt.wantErr)
			assert.Nil(t, r.Data)
			assert.Empty(t, backend.Calls(), "backend must not be contacted")
		})
	}
}

func TestInvoke_BackendErrorBecomesResult(t *testing.T) {
	tests := []struct {
		tool    string
		args    map[string]any
		wantErr string
	}{
		{ToolList, nil, "Failed to list tasks: boom"},
		{ToolCreate, map[string]any{"title": "x"}, "Failed to create task: boom"},
		{ToolUpdate, map[string]any{"task_id": "t1", "notes": "n"}, "Failed to update task: boom"},
		{ToolDelete, map[string]any{"task_id": "t1"}, "Failed to delete task: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			reg, backend := newTestRegistry(t)
			backend.err = errors.New("boom")

			r := reg.Invoke(context.Background(), tt.tool, tt.args)
			assert.False(t, r.OK)
			assert.Equal(t, tt.wantErr, r.Error)
			assert.Equal(t, map[string]any{"ok": false, "error": tt.wantErr}, decode(t, r))
		})
	}
}

func TestInvoke_AuditLog(t *testing.T) {
	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true},
	)
	reg, _ := newTestRegistry(t, WithAuditLogger(audit), WithMetrics(&instrumentation.Metrics{}))

	ctx := WithInvocation(context.Background(), "run-1", "call-7")
	reg.Invoke(ctx, ToolDelete, map[string]any{"task_id": "missing"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "tool_failed", entry["msg"])
	assert.Equal(t, ToolDelete, entry["tool"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "call-7", entry["tool_call_id"])
	assert.NotContains(t, entry, "arguments")
}

func TestResult_FailureNeverCarriesData(t *testing.T) {
	r := Result{OK: false, Error: "nope", Data: map[string]any{"task": "leak"}}
	assert.Equal(t, map[string]any{"ok": false, "error": "nope"}, decode(t, r))

	assert.Equal(t, "unknown error", Failure("").Error)
}
