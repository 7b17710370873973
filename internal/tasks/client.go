package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/teemow/tasksagent/internal/instrumentation"
)

// Client wraps the Google Tasks service and implements Backend
// against a single task list.
type Client struct {
	svc        *tasks.Service
	taskListID string
	metrics    *instrumentation.Metrics
}

var _ Backend = (*Client)(nil)

// NewClient creates a Tasks client for the given task list.
// Authentication is supplied through opts, typically option.WithHTTPClient
// with a client from the google package.
func NewClient(ctx context.Context, taskListID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}

	if taskListID == "" {
		taskListID = DefaultTaskListID
	}

	return &Client{
		svc:        svc,
		taskListID: taskListID,
	}, nil
}

// SetMetrics enables Google API operation metrics for this client.
func (c *Client) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

// TaskListID returns the task list this client operates on.
func (c *Client) TaskListID() string {
	return c.taskListID
}

// List lists up to limit tasks of the task list
func (c *Client) List(ctx context.Context, limit int) ([]Task, error) {
	var items []*tasks.Task
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		result, err := c.svc.Tasks.List(c.taskListID).
			MaxResults(int64(ClampLimit(limit))).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		items = result.Items
		return nil
	})
	if err != nil {
		return nil, wrapAPIError("list tasks", err)
	}

	taskList := make([]Task, 0, len(items))
	for _, t := range items {
		taskList = append(taskList, toTask(t))
	}

	return taskList, nil
}

// Create creates a new task
func (c *Client) Create(ctx context.Context, input TaskInput) (*Task, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	t := &tasks.Task{
		Title:  input.Title,
		Notes:  input.Notes,
		Status: input.Status,
	}
	if !input.Due.IsZero() {
		t.Due = input.Due.UTC().Format(time.RFC3339)
	}

	var created *tasks.Task
	err := c.observe(ctx, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Tasks.Insert(c.taskListID, t).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, wrapAPIError("create task", err)
	}

	result := toTask(created)
	return &result, nil
}

// Update updates an existing task. Only fields set in patch are changed.
func (c *Client) Update(ctx context.Context, taskID string, patch TaskPatch) (*Task, error) {
	if taskID == "" {
		return nil, ErrTaskIDRequired
	}
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	var updated *tasks.Task
	err := c.observe(ctx, instrumentation.OperationUpdate, func(ctx context.Context) error {
		// Get existing task first
		existing, err := c.svc.Tasks.Get(c.taskListID, taskID).Context(ctx).Do()
		if err != nil {
			return err
		}

		applyPatch(existing, patch)

		updated, err = c.svc.Tasks.Update(c.taskListID, taskID, existing).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, wrapAPIError("update task", err)
	}

	result := toTask(updated)
	return &result, nil
}

// Delete deletes a task
func (c *Client) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return ErrTaskIDRequired
	}

	err := c.observe(ctx, instrumentation.OperationDelete, func(ctx context.Context) error {
		return c.svc.Tasks.Delete(c.taskListID, taskID).Context(ctx).Do()
	})
	if err != nil {
		return wrapAPIError("delete task", err)
	}
	return nil
}

// observe runs fn inside a Google API span and records its duration.
func (c *Client) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceTasks, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceTasks, operation, status, time.Since(start))

	return err
}

// wrapAPIError adds operation context and maps 404 responses to ErrNotFound.
func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
