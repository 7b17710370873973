package tasks_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/tasksagent/internal/instrumentation"
	"github.com/teemow/tasksagent/internal/logging"
	"github.com/teemow/tasksagent/internal/tasks"
)

// Handler executes a tool against already-resolved arguments.
// Handlers never return Go errors; failures are part of the Result.
type Handler func(ctx context.Context, args map[string]any) Result

// Tool is a named, schema-described operation the model may call.
type Tool struct {
	Name        string
	Description string
	Operation   string

	schema  json.RawMessage
	handler Handler
}

// RawSchema returns the JSON Schema of the tool's arguments.
func (t *Tool) RawSchema() json.RawMessage {
	return t.schema
}

// Parameters returns a fresh copy of the argument schema as a generic map.
func (t *Tool) Parameters() map[string]any {
	var params map[string]any
	if err := json.Unmarshal(t.schema, &params); err != nil {
		return map[string]any{"type": "object"}
	}
	return params
}

type toolDef struct {
	name        string
	description string
	operation   string
	args        any
	handler     Handler
}

// Registry resolves tool names and runs instrumented invocations.
// It is safe for concurrent use once built.
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records tool invocation metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithAuditLogger writes one audit line per invocation.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(r *Registry) { r.auditLogger = al }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry builds the four task tools on top of backend.
func NewRegistry(backend tasks.Backend, opts ...Option) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Tool),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, def := range taskTools(backend) {
		schema, err := schemaFor(def.args)
		if err != nil {
			return nil, fmt.Errorf("failed to build schema for %s: %w", def.name, err)
		}
		t := &Tool{
			Name:        def.name,
			Description: def.description,
			Operation:   def.operation,
			schema:      schema,
			handler:     def.handler,
		}
		r.tools = append(r.tools, t)
		r.byName[t.Name] = t
	}

	return r, nil
}

// Tools returns the registered tools in declaration order.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the registered tool names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

type invocationKey struct{}

type invocationInfo struct {
	runID  string
	callID string
}

// WithInvocation attaches the agent run and correlation id to ctx so that
// Invoke can tag spans and audit lines with them.
func WithInvocation(ctx context.Context, runID, callID string) context.Context {
	return context.WithValue(ctx, invocationKey{}, invocationInfo{runID: runID, callID: callID})
}

func invocationFrom(ctx context.Context) invocationInfo {
	info, _ := ctx.Value(invocationKey{}).(invocationInfo)
	return info
}

// Invoke runs the named tool. Unknown names yield a not-found result
// without running anything.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) Result {
	logger := logging.WithTool(r.logger, name)
	tool, ok := r.byName[name]
	if !ok {
		logger.Debug("unknown tool requested")
		return NotFound(name)
	}

	info := invocationFrom(ctx)
	ctx, span := instrumentation.StartToolSpan(ctx, tool.Name,
		attribute.String(instrumentation.SpanAttrToolCallID, info.callID),
		attribute.String(instrumentation.SpanAttrRunID, info.runID),
	)
	defer span.End()

	invocation := instrumentation.NewToolInvocation(tool.Name).
		WithCall(info.callID, info.runID).
		WithArguments(args).
		WithSpanContext(ctx)

	start := time.Now()
	result := tool.handler(ctx, args)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if result.OK {
		instrumentation.SetSpanSuccess(span)
	} else {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, fmt.Errorf("%s", result.Error))
	}

	r.metrics.RecordToolInvocation(ctx, tool.Name, status, duration)
	r.auditLogger.LogToolInvocation(invocation.Complete(result.OK, result.Error))
	logger.Debug("tool invoked",
		logging.RunID(info.runID),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, duration),
	)

	return result
}
