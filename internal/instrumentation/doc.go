// Package instrumentation provides OpenTelemetry metrics, tracing and tool
// audit logging for tasksagent.
//
// # Metrics
//
// HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// Agent Metrics:
//   - agent_runs_total: Counter of agent runs by status (success, error, timeout, capped)
//   - agent_run_duration_seconds: Histogram of agent run durations
//   - agent_rounds: Histogram of model rounds per run
//   - llm_calls_total: Counter of language model calls by provider and status
//   - llm_call_duration_seconds: Histogram of language model call durations
//   - tool_invocations_total: Counter of tool invocations by tool name and status
//   - tool_duration_seconds: Histogram of tool execution durations
//
// # Tracing
//
// Spans are created for agent runs (agent.run), model calls (llm.generate),
// tool invocations (tool.<name>) and Google API calls
// (google.<service>.<operation>).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: tasksagent)
//   - AUDIT_LOGGING_ENABLED / AUDIT_LOGGING_INCLUDE_ARGUMENTS: tool audit log
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "tasks.list", "success", time.Since(start))
package instrumentation
