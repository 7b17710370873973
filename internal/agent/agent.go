package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/tasksagent/internal/instrumentation"
	"github.com/teemow/tasksagent/internal/llm"
	"github.com/teemow/tasksagent/internal/logging"
	"github.com/teemow/tasksagent/internal/tools/tasks_tools"
)

// ErrModel wraps every language model failure that ends a run.
var ErrModel = errors.New("model call failed")

// maxLogText bounds request and answer text in log lines.
const maxLogText = 200

// Agent answers natural-language task requests by letting a model call
// the task tools in a bounded loop.
type Agent struct {
	model  llm.Model
	tools  *tasks_tools.Registry
	specs  []llm.ToolSpec
	config Config

	metrics *instrumentation.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Agent.
type Option func(*Agent)

// WithMetrics records LLM calls and run outcomes.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Agent.
func New(model llm.Model, tools *tasks_tools.Registry, config Config, opts ...Option) (*Agent, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	a := &Agent{
		model:  model,
		tools:  tools,
		config: config,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.WithProvider(a.logger, model.Provider())

	for _, t := range tools.Tools() {
		a.specs = append(a.specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters(),
		})
	}
	return a, nil
}

// Run executes one request. A timeout is reported through the Output,
// not as an error. Model failures are returned wrapped in ErrModel.
func (a *Agent) Run(ctx context.Context, input string) (*Output, error) {
	runID := uuid.NewString()
	logger := logging.WithRunID(a.logger, runID)

	ctx, span := instrumentation.StartAgentSpan(ctx, runID)
	defer span.End()
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	runCtx := ctx
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	state := newState(runID, input)
	logger.Info("Agent run started",
		logging.Operation("agent.run"),
		slog.String("request", logging.Truncate(input, maxLogText)))

	out, err := a.loop(runCtx, state, logger)
	duration := time.Since(start)
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrRounds, state.Rounds))

	var status string
	switch {
	case err != nil && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		status = instrumentation.StatusTimeout
		out = newOutput(state, TimeoutAnswer, false)
		err = nil
		span.SetAttributes(attribute.Bool("agent.timeout", true))
	case err != nil:
		status = instrumentation.StatusError
	case state.Capped:
		status = instrumentation.StatusCapped
	case out.Success:
		status = instrumentation.StatusSuccess
	default:
		status = instrumentation.StatusFailed
	}

	a.metrics.RecordAgentRun(ctx, status, state.Rounds, duration)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("Agent run failed",
			logging.Err(err),
			logging.Rounds(state.Rounds),
			slog.Duration(logging.KeyDuration, duration))
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	logger.Info("Agent run finished",
		logging.Status(status),
		logging.Rounds(state.Rounds),
		slog.Int("llm_calls", out.LLMCalls),
		slog.Any("used_tools", out.UsedTools),
		slog.String("answer", logging.Truncate(out.Answer, maxLogText)),
		slog.Duration(logging.KeyDuration, duration))
	return out, nil
}

func (a *Agent) loop(ctx context.Context, state *State, logger *slog.Logger) (*Output, error) {
	system := systemPrompt(a.config.Language, a.now())

	var out *Output
	for state.phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next Phase
		switch state.phase {
		case PhaseBootstrap:
			if a.config.Preload {
				a.bootstrap(ctx, state, logger)
			}
			next = PhaseModelTurn

		case PhaseModelTurn:
			msg, err := a.generate(ctx, state, llm.Request{
				System:   system,
				Messages: state.Messages,
				Tools:    a.specs,
			})
			if err != nil {
				return nil, err
			}
			state.Rounds++
			next = a.decide(state, msg, logger)

		case PhaseToolTurn:
			a.runTools(ctx, state)
			next = PhaseModelTurn

		case PhaseFinalize:
			final, err := a.finalize(ctx, state, system)
			if err != nil {
				return nil, err
			}
			out = final
			next = PhaseDone

		default:
			return nil, fmt.Errorf("%w: no handler for %s", ErrInvalidTransition, state.phase)
		}

		logger.Debug("Agent transition",
			slog.String("from", state.phase.String()),
			slog.String("to", next.String()))
		if err := state.advance(next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// bootstrap injects a snapshot of the task list. Failures are reported to
// the model as context and never end the run.
func (a *Agent) bootstrap(ctx context.Context, state *State, logger *slog.Logger) {
	ctx = tasks_tools.WithInvocation(ctx, state.RunID, "preload")
	res := a.tools.Invoke(ctx, tasks_tools.ToolList, map[string]any{"limit": a.config.PreloadLimit})
	if !res.OK {
		logger.Warn("Preloading tasks failed", slog.String(logging.KeyError, res.Error))
		state.append(llm.SystemMessage{Content: preloadFailedMessage(res.Error)})
		return
	}
	state.append(llm.SystemMessage{Content: preloadMessage(res.String())})
}

// decide records the model reply and picks the next phase.
func (a *Agent) decide(state *State, msg *llm.AIMessage, logger *slog.Logger) Phase {
	state.append(*msg)
	if !msg.HasToolCalls() {
		return PhaseFinalize
	}
	if state.Rounds >= a.config.MaxRounds {
		logger.Warn("Round limit reached", logging.Rounds(state.Rounds))
		state.Capped = true
		a.skipTools(state, msg.ToolCalls)
		return PhaseFinalize
	}
	return PhaseToolTurn
}

// runTools executes the pending tool calls of the last model reply in order.
func (a *Agent) runTools(ctx context.Context, state *State) {
	ai, ok := state.lastAI()
	if !ok {
		return
	}
	for _, call := range ai.ToolCalls {
		state.UsedTools = append(state.UsedTools, call.Name)
		res := a.tools.Invoke(tasks_tools.WithInvocation(ctx, state.RunID, call.ID), call.Name, call.Args)
		state.append(llm.ToolMessage{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    res.String(),
		})
	}
}

// skipTools answers calls that will not run so every call id keeps a result.
func (a *Agent) skipTools(state *State, calls []llm.ToolCall) {
	for _, call := range calls {
		state.append(llm.ToolMessage{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    tasks_tools.Failure("round limit reached, %s was not executed", call.Name).String(),
		})
	}
}

// generate performs one instrumented model call and counts it.
func (a *Agent) generate(ctx context.Context, state *State, req llm.Request) (*llm.AIMessage, error) {
	ctx, span := instrumentation.StartModelSpan(ctx, a.model.Provider(), a.model.Name())
	defer span.End()

	start := time.Now()
	msg, err := a.model.Generate(ctx, req)
	if err == nil && msg == nil {
		err = llm.ErrEmptyResponse
	}
	state.LLMCalls++

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	a.metrics.RecordLLMCall(ctx, a.model.Provider(), a.model.Name(), status, time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("%w: %w", ErrModel, err)
	}

	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].ID == "" {
			msg.ToolCalls[i].ID = uuid.NewString()
		}
	}
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrToolCalls, len(msg.ToolCalls)))
	instrumentation.SetSpanSuccess(span)
	return msg, nil
}
