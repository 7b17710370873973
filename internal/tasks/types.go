package tasks

import (
	"context"
	"errors"
	"time"

	tasks "google.golang.org/api/tasks/v1"
)

// Task status values accepted by Google Tasks.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// List limits. Google Tasks caps maxResults at 100 and defaults to 20.
const (
	DefaultListLimit = 20
	MinListLimit     = 1
	MaxListLimit     = 100
)

// DefaultTaskListID addresses the user's default task list.
const DefaultTaskListID = "@default"

var (
	// ErrNotFound is returned when the addressed task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrTitleRequired is returned when creating a task without a title.
	ErrTitleRequired = errors.New("title is required")

	// ErrTaskIDRequired is returned when an operation is missing the task ID.
	ErrTaskIDRequired = errors.New("task_id is required")

	// ErrEmptyPatch is returned when an update carries no fields.
	ErrEmptyPatch = errors.New("at least one field must be provided for update")
)

// Backend is the task store the agent operates on.
// Implementations must be safe for concurrent use.
type Backend interface {
	// List returns up to limit tasks in backend order.
	List(ctx context.Context, limit int) ([]Task, error)

	// Create inserts a new task. Unset optional fields are omitted from the write.
	Create(ctx context.Context, input TaskInput) (*Task, error)

	// Update fetches the task and overwrites only the fields set in patch.
	Update(ctx context.Context, taskID string, patch TaskPatch) (*Task, error)

	// Delete removes the task. Deleting a missing task is an error.
	Delete(ctx context.Context, taskID string) error
}

// Task represents a Google Tasks task
type Task struct {
	ID      string
	Title   string
	Notes   string
	Status  string // "needsAction" or "completed"
	Due     time.Time
	Updated time.Time
}

// TaskInput represents the input for creating a task
type TaskInput struct {
	Title  string
	Notes  string
	Status string
	Due    time.Time
}

// TaskPatch carries the fields of an update. Nil fields are left untouched.
type TaskPatch struct {
	Title  *string
	Notes  *string
	Status *string
	Due    *time.Time
}

// IsEmpty reports whether the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Notes == nil && p.Status == nil && p.Due == nil
}

// ValidStatus reports whether s is a status Google Tasks accepts.
func ValidStatus(s string) bool {
	return s == StatusNeedsAction || s == StatusCompleted
}

// ClampLimit bounds limit to [MinListLimit, MaxListLimit].
func ClampLimit(limit int) int {
	if limit < MinListLimit {
		return MinListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// toTask converts a Google Tasks Task to our Task type
func toTask(t *tasks.Task) Task {
	if t == nil {
		return Task{}
	}

	result := Task{
		ID:     t.Id,
		Title:  t.Title,
		Notes:  t.Notes,
		Status: t.Status,
	}

	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			result.Due = due
		}
	}

	if t.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, t.Updated); err == nil {
			result.Updated = updated
		}
	}

	return result
}

// applyPatch merges the set fields of patch into t.
func applyPatch(t *tasks.Task, patch TaskPatch) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Status != nil {
		t.Status = *patch.Status
		// Google rejects a completed timestamp on an open task.
		if *patch.Status == StatusNeedsAction {
			t.Completed = nil
		}
	}
	if patch.Due != nil {
		t.Due = patch.Due.UTC().Format(time.RFC3339)
	}
}
