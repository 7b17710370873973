package tasks_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/tasksagent/internal/instrumentation"
	"github.com/teemow/tasksagent/internal/tasks"
)

// Tool names as the model sees them.
const (
	ToolList   = "tasks.list"
	ToolCreate = "tasks.create"
	ToolUpdate = "tasks.update"
	ToolDelete = "tasks.delete"
)

// ListArgs are the arguments of tasks.list.
type ListArgs struct {
	Limit *int `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100,default=20" jsonschema_description:"Maximum number of tasks to return (1-100, default 20)"`
}

// CreateArgs are the arguments of tasks.create.
type CreateArgs struct {
	Title string `json:"title" jsonschema:"minLength=1" jsonschema_description:"Title of the task"`
	Notes string `json:"notes,omitempty" jsonschema_description:"Optional notes"`
	Due   string `json:"due,omitempty" jsonschema:"format=date-time" jsonschema_description:"Optional due date as RFC3339 timestamp, e.g. 2025-01-31T00:00:00Z"`
}

// UpdateArgs are the arguments of tasks.update. At least one optional field
// must be set.
type UpdateArgs struct {
	TaskID string  `json:"task_id" jsonschema:"minLength=1" jsonschema_description:"ID of the task to update"`
	Title  *string `json:"title,omitempty" jsonschema_description:"New title"`
	Notes  *string `json:"notes,omitempty" jsonschema_description:"New notes"`
	Due    *string `json:"due,omitempty" jsonschema:"format=date-time" jsonschema_description:"New due date as RFC3339 timestamp. Empty leaves the due date unchanged"`
	Status *string `json:"status,omitempty" jsonschema:"enum=needsAction,enum=completed" jsonschema_description:"New status"`
}

// DeleteArgs are the arguments of tasks.delete.
type DeleteArgs struct {
	TaskID string `json:"task_id" jsonschema:"minLength=1" jsonschema_description:"ID of the task to delete"`
}

func taskTools(backend tasks.Backend) []toolDef {
	return []toolDef{
		{
			name:        ToolList,
			description: "List tasks from the user's default Google Tasks list. Use this first to find task IDs.",
			operation:   instrumentation.OperationList,
			args:        &ListArgs{},
			handler:     listHandler(backend),
		},
		{
			name:        ToolCreate,
			description: "Create a new task with a title and optional notes and due date.",
			operation:   instrumentation.OperationCreate,
			args:        &CreateArgs{},
			handler:     createHandler(backend),
		},
		{
			name:        ToolUpdate,
			description: "Update an existing task by ID. Only the provided fields are changed. Set status to 'completed' to mark a task done.",
			operation:   instrumentation.OperationUpdate,
			args:        &UpdateArgs{},
			handler:     updateHandler(backend),
		},
		{
			name:        ToolDelete,
			description: "Delete a task by ID.",
			operation:   instrumentation.OperationDelete,
			args:        &DeleteArgs{},
			handler:     deleteHandler(backend),
		},
	}
}

func listHandler(backend tasks.Backend) Handler {
	return func(ctx context.Context, raw map[string]any) Result {
		var args ListArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Failure("%v", err)
		}

		limit := tasks.DefaultListLimit
		if args.Limit != nil {
			limit = *args.Limit
		}
		if limit < tasks.MinListLimit || limit > tasks.MaxListLimit {
			return Failure("limit must be between %d and %d, got %d", tasks.MinListLimit, tasks.MaxListLimit, limit)
		}

		items, err := backend.List(ctx, limit)
		if err != nil {
			return Failure("Failed to list tasks: %v", err)
		}

		views := make([]TaskView, 0, len(items))
		for _, t := range items {
			views = append(views, NewTaskView(t))
		}

		return Success(map[string]any{
			"count":   len(views),
			"tasks":   views,
			"message": fmt.Sprintf("Found %d task(s)", len(views)),
		})
	}
}

func createHandler(backend tasks.Backend) Handler {
	return func(ctx context.Context, raw map[string]any) Result {
		var args CreateArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Failure("%v", err)
		}

		title := strings.TrimSpace(args.Title)
		if title == "" {
			return Failure("%v", tasks.ErrTitleRequired)
		}

		input := tasks.TaskInput{Title: title, Notes: args.Notes}
		if strings.TrimSpace(args.Due) != "" {
			due, err := parseDue(args.Due)
			if err != nil {
				return Failure("%v", err)
			}
			input.Due = due
		}

		task, err := backend.Create(ctx, input)
		if err != nil {
			return Failure("Failed to create task: %v", err)
		}

		return Success(map[string]any{
			"task":    NewTaskView(*task),
			"message": "Task created successfully",
		})
	}
}

func updateHandler(backend tasks.Backend) Handler {
	return func(ctx context.Context, raw map[string]any) Result {
		var args UpdateArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Failure("%v", err)
		}

		taskID := strings.TrimSpace(args.TaskID)
		if taskID == "" {
			return Failure("%v", tasks.ErrTaskIDRequired)
		}

		patch := tasks.TaskPatch{Title: args.Title, Notes: args.Notes}
		if args.Title != nil && strings.TrimSpace(*args.Title) == "" {
			return Failure("title must not be empty")
		}
		if args.Status != nil {
			if !tasks.ValidStatus(*args.Status) {
				return Failure("status must be one of: %s, %s (got %q)",
					tasks.StatusNeedsAction, tasks.StatusCompleted, *args.Status)
			}
			patch.Status = args.Status
		}
		// an empty due is unset, as in create
		if args.Due != nil && strings.TrimSpace(*args.Due) != "" {
			due, err := parseDue(*args.Due)
			if err != nil {
				return Failure("%v", err)
			}
			patch.Due = &due
		}
		if patch.IsEmpty() {
			return Failure("%v", tasks.ErrEmptyPatch)
		}

		task, err := backend.Update(ctx, taskID, patch)
		if err != nil {
			return Failure("Failed to update task: %v", err)
		}

		return Success(map[string]any{
			"task":    NewTaskView(*task),
			"message": "Task updated successfully",
		})
	}
}

func deleteHandler(backend tasks.Backend) Handler {
	return func(ctx context.Context, raw map[string]any) Result {
		var args DeleteArgs
		if err := decodeArgs(raw, &args); err != nil {
			return Failure("%v", err)
		}

		taskID := strings.TrimSpace(args.TaskID)
		if taskID == "" {
			return Failure("%v", tasks.ErrTaskIDRequired)
		}

		if err := backend.Delete(ctx, taskID); err != nil {
			return Failure("Failed to delete task: %v", err)
		}

		return Success(map[string]any{
			"task_id": taskID,
			"message": "Task deleted successfully",
		})
	}
}

func parseDue(s string) (time.Time, error) {
	due, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("due must be an RFC3339 timestamp such as 2025-01-31T00:00:00Z, got %q", s)
	}
	return due, nil
}
