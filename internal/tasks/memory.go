package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend is an in-process Backend. It is used for tests and for
// running the agent without Google credentials.
type MemoryBackend struct {
	mu    sync.RWMutex
	order []string
	items map[string]Task
	now   func() time.Time
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a MemoryBackend holding the given tasks in order.
// Seed tasks without an ID get a generated one.
func NewMemoryBackend(seed ...Task) *MemoryBackend {
	m := &MemoryBackend{
		items: make(map[string]Task, len(seed)),
		now:   time.Now,
	}
	for _, t := range seed {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Status == "" {
			t.Status = StatusNeedsAction
		}
		if t.Updated.IsZero() {
			t.Updated = m.now().UTC()
		}
		m.order = append(m.order, t.ID)
		m.items[t.ID] = t
	}
	return m
}

// Len returns the number of stored tasks.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Get returns a stored task by ID.
func (m *MemoryBackend) Get(taskID string) (Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.items[taskID]
	return t, ok
}

func (m *MemoryBackend) List(ctx context.Context, limit int) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = ClampLimit(limit)
	result := make([]Task, 0, min(limit, len(m.order)))
	for _, id := range m.order {
		if len(result) == limit {
			break
		}
		result = append(result, m.items[id])
	}
	return result, nil
}

func (m *MemoryBackend) Create(ctx context.Context, input TaskInput) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	status := input.Status
	if status == "" {
		status = StatusNeedsAction
	}

	t := Task{
		ID:      uuid.NewString(),
		Title:   input.Title,
		Notes:   input.Notes,
		Status:  status,
		Due:     input.Due,
		Updated: m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, t.ID)
	m.items[t.ID] = t

	return &t, nil
}

func (m *MemoryBackend) Update(ctx context.Context, taskID string, patch TaskPatch) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if taskID == "" {
		return nil, ErrTaskIDRequired
	}
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.items[taskID]
	if !ok {
		return nil, fmt.Errorf("failed to update task %s: %w", taskID, ErrNotFound)
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Due != nil {
		t.Due = *patch.Due
	}
	t.Updated = m.now().UTC()
	m.items[taskID] = t

	return &t, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if taskID == "" {
		return ErrTaskIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[taskID]; !ok {
		return fmt.Errorf("failed to delete task %s: %w", taskID, ErrNotFound)
	}
	delete(m.items, taskID)
	for i, id := range m.order {
		if id == taskID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
