package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tasksagent/internal/agent"
	"github.com/teemow/tasksagent/internal/llm"
	"github.com/teemow/tasksagent/internal/llm/llmtest"
	"github.com/teemow/tasksagent/internal/tasks"
	"github.com/teemow/tasksagent/internal/tools/tasks_tools"
)

// useTestStack swaps the model and memory backend for the duration of a test.
func useTestStack(t *testing.T, model llm.Model, backend *tasks.MemoryBackend) {
	t.Helper()
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("AGENT_PRELOAD", "false")

	oldModel, oldBackend := newModel, newMemoryBackend
	newModel = func(context.Context, llm.Config, *slog.Logger) (llm.Model, error) {
		return model, nil
	}
	newMemoryBackend = func() *tasks.MemoryBackend { return backend }

	defaultLogger := slog.Default()
	t.Cleanup(func() {
		newModel, newMemoryBackend = oldModel, oldBackend
		slog.SetDefault(defaultLogger)
	})
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(defaultArgs(root, args))
	err := root.Execute()
	return out.String(), err
}

func TestRequestText(t *testing.T) {
	assert.Equal(t, defaultRequest, requestText(nil))
	assert.Equal(t, defaultRequest, requestText([]string{"  ", "\t"}))
	assert.Equal(t, "add buy milk", requestText([]string{"add", "buy", "milk"}))
}

func TestAsk_CreatesTask(t *testing.T) {
	backend := tasks.NewMemoryBackend()
	model := llmtest.New(
		llmtest.CallTools(llm.ToolCall{ID: "c1", Name: tasks_tools.ToolCreate, Args: map[string]any{"title": "Buy milk"}}),
		llmtest.Reply("Added 'Buy milk'."),
		llmtest.Reply(`{"answer": "Added 'Buy milk'.", "success": true}`),
	)
	useTestStack(t, model, backend)

	out, err := executeRoot(t, "--backend", "memory", "add", "buy", "milk")
	require.NoError(t, err)
	assert.Equal(t, "Added 'Buy milk'.\n", out)
	assert.Equal(t, 1, backend.Len())

	first := model.Requests()[0].Messages[0].(llm.HumanMessage)
	assert.Equal(t, "add buy milk", first.Content)
}

func TestAsk_JSONAndDefaultRequest(t *testing.T) {
	backend := tasks.NewMemoryBackend(tasks.Task{ID: "t1", Title: "Buy bread"})
	model := llmtest.New(
		llmtest.CallTools(llm.ToolCall{ID: "c1", Name: tasks_tools.ToolList}),
		llmtest.Reply("You have one task: Buy bread."),
		llmtest.Reply(`{"answer": "You have one task: Buy bread.", "success": true}`),
	)
	useTestStack(t, model, backend)

	out, err := executeRoot(t, "ask", "--backend", "memory", "--json")
	require.NoError(t, err)

	var got agent.Output
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, agent.Output{
		Answer:    "You have one task: Buy bread.",
		Success:   true,
		UsedTools: []string{tasks_tools.ToolList},
		LLMCalls:  3,
	}, got)

	first := model.Requests()[0].Messages[0].(llm.HumanMessage)
	assert.Equal(t, defaultRequest, first.Content)
}

func TestAsk_ModelError(t *testing.T) {
	model := llmtest.New(llmtest.Fail(errors.New("invalid API key")))
	useTestStack(t, model, tasks.NewMemoryBackend())

	_, err := executeRoot(t, "--backend", "memory", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrModel)
	assert.Contains(t, err.Error(), "failed to process request")
}
