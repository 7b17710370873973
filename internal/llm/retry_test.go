package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tasksagent/internal/llm"
	"github.com/teemow/tasksagent/internal/llm/llmtest"
)

var fastRetry = llm.RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestWithRetry_RecoversFromTransientError(t *testing.T) {
	inner := llmtest.New(
		llmtest.Fail(&llm.ProviderError{Provider: "scripted", StatusCode: 503, Err: errors.New("unavailable")}),
		llmtest.Reply("hello"),
	)
	m := llm.WithRetry(inner, fastRetry, nil)

	msg, err := m.Generate(context.Background(), llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, 2, inner.Calls())
	assert.Equal(t, "scripted", m.Provider())
}

func TestWithRetry_PermanentErrorIsNotRetried(t *testing.T) {
	cause := &llm.ProviderError{Provider: "scripted", StatusCode: 401, Err: errors.New("bad key")}
	inner := llmtest.New(llmtest.Fail(cause), llmtest.Reply("unreachable"))
	m := llm.WithRetry(inner, fastRetry, nil)

	_, err := m.Generate(context.Background(), llm.Request{})
	require.Error(t, err)
	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 401, pe.StatusCode)
	assert.Equal(t, 1, inner.Calls())
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	inner := llmtest.Always(llmtest.Fail(&llm.ProviderError{Provider: "scripted", StatusCode: 429, Err: errors.New("slow down")}))
	m := llm.WithRetry(inner, fastRetry, nil)

	_, err := m.Generate(context.Background(), llm.Request{})
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
	assert.Equal(t, 3, inner.Calls())
}
