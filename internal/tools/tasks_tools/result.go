package tasks_tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teemow/tasksagent/internal/tasks"
)

// Result is the uniform envelope every tool returns. It serializes flat:
// {"ok":true, ...data} or {"ok":false,"error":"..."}.
type Result struct {
	OK    bool
	Error string
	Data  map[string]any
}

// Success builds an ok result carrying data.
func Success(data map[string]any) Result {
	return Result{OK: true, Data: data}
}

// Failure builds a failed result. A failed result never carries data.
func Failure(format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		msg = "unknown error"
	}
	return Result{OK: false, Error: msg}
}

// NotFound is the result for a tool name the registry does not know.
func NotFound(name string) Result {
	return Failure("tool not found: %s", name)
}

// MarshalJSON flattens Data next to the ok flag.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK {
		return json.Marshal(struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}{false, r.Error})
	}

	out := make(map[string]any, len(r.Data)+1)
	for k, v := range r.Data {
		out[k] = v
	}
	out["ok"] = true
	return json.Marshal(out)
}

// String returns the JSON form, which is what the model sees.
func (r Result) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"ok":false,"error":%q}`, "failed to encode result: "+err.Error())
	}
	return string(b)
}

// TaskView is the projection of a task exposed to the model.
type TaskView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Due     string `json:"due,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Updated string `json:"updated,omitempty"`
}

// NewTaskView projects a task, dropping everything but the exposed fields.
func NewTaskView(t tasks.Task) TaskView {
	return TaskView{
		ID:      t.ID,
		Title:   t.Title,
		Status:  t.Status,
		Due:     formatTime(t.Due),
		Notes:   t.Notes,
		Updated: formatTime(t.Updated),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
