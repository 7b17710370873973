// Package llmtest provides scripted llm.Model implementations for tests.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teemow/tasksagent/internal/llm"
)

// ErrExhausted is returned when a Scripted model runs out of steps.
var ErrExhausted = errors.New("scripted model exhausted")

// Step is one scripted model response.
type Step struct {
	Message *llm.AIMessage
	Err     error

	// Block waits for the context to be done and returns its error.
	Block bool
}

// Reply answers with text and no tool calls.
func Reply(text string) Step {
	return Step{Message: &llm.AIMessage{Content: text}}
}

// CallTools requests the given tool calls.
func CallTools(calls ...llm.ToolCall) Step {
	return Step{Message: &llm.AIMessage{ToolCalls: calls}}
}

// Fail returns err from the model call.
func Fail(err error) Step {
	return Step{Err: err}
}

// Hang blocks until the caller's context is cancelled.
func Hang() Step {
	return Step{Block: true}
}

// Scripted replays Steps in order and records every request.
type Scripted struct {
	mu       sync.Mutex
	steps    []Step
	requests []llm.Request

	// Then, if set, answers once the steps are used up.
	Then func(n int, req llm.Request) Step
}

var _ llm.Model = (*Scripted)(nil)

// New creates a Scripted model.
func New(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// Always answers every call with the same step.
func Always(step Step) *Scripted {
	return &Scripted{Then: func(int, llm.Request) Step { return step }}
}

func (s *Scripted) Provider() string { return "scripted" }
func (s *Scripted) Name() string     { return "scripted-model" }

// Generate returns the next step.
func (s *Scripted) Generate(ctx context.Context, req llm.Request) (*llm.AIMessage, error) {
	s.mu.Lock()
	n := len(s.requests)
	req.Messages = append([]llm.Message(nil), req.Messages...)
	s.requests = append(s.requests, req)

	var step Step
	switch {
	case n < len(s.steps):
		step = s.steps[n]
	case s.Then != nil:
		step = s.Then(n, req)
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("%w after %d calls", ErrExhausted, n)
	}
	s.mu.Unlock()

	if step.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if step.Err != nil {
		return nil, step.Err
	}

	msg := *step.Message
	msg.ToolCalls = append([]llm.ToolCall(nil), step.Message.ToolCalls...)
	return &msg, nil
}

// Requests returns a copy of every request received so far.
func (s *Scripted) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}

// Calls returns the number of Generate calls.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
