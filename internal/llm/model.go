package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers without any candidate.
var ErrEmptyResponse = errors.New("model returned an empty response")

// ToolSpec describes a tool the model may call. Parameters is a JSON Schema
// object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one model call.
type Request struct {
	// System is the fixed system instruction.
	System string

	// Messages is the conversation log in order.
	Messages []Message

	// Tools the model may call. Empty disables tool calling.
	Tools []ToolSpec

	// DisableToolUse keeps Tools declared but forbids new tool calls.
	// Providers that validate tool_use history against the declared tools
	// need the declarations even when the model must answer with text.
	DisableToolUse bool

	// JSONOutput asks the provider for a JSON object answer where supported.
	JSONOutput bool
}

// Model generates the next AI message for a conversation.
// Implementations must be safe for concurrent use.
type Model interface {
	Generate(ctx context.Context, req Request) (*AIMessage, error)

	// Provider returns the provider name, e.g. "gemini".
	Provider() string

	// Name returns the model name, e.g. "gemini-2.5-flash".
	Name() string
}

// ProviderError wraps a failed provider call with the HTTP status it
// returned. StatusCode is zero for transport failures.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call may succeed.
func (e *ProviderError) Retryable() bool {
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// splitSystem joins the request system prompt with every SystemMessage of
// the log, for providers that take a single system instruction.
func splitSystem(req Request) (string, []Message) {
	parts := []string{}
	if s := strings.TrimSpace(req.System); s != "" {
		parts = append(parts, s)
	}

	rest := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if sm, ok := m.(SystemMessage); ok {
			if s := strings.TrimSpace(sm.Content); s != "" {
				parts = append(parts, s)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(parts, "\n\n"), rest
}
