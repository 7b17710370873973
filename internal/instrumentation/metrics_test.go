package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterValue(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)

	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "tasks.list", StatusSuccess, 10*time.Millisecond)
	m.RecordToolInvocation(ctx, "tasks.list", StatusSuccess, 20*time.Millisecond)
	m.RecordToolInvocation(ctx, "tasks.delete", StatusError, 5*time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(2), counterValue(t, data["tool_invocations_total"],
		attribute.String(attrTool, "tasks.list"), attribute.String(attrStatus, StatusSuccess)))
	assert.Equal(t, int64(1), counterValue(t, data["tool_invocations_total"],
		attribute.String(attrTool, "tasks.delete"), attribute.String(attrStatus, StatusError)))
	assert.Contains(t, data, "tool_duration_seconds")
}

func TestMetrics_RecordLLMCall_DetailedLabels(t *testing.T) {
	tests := []struct {
		name     string
		detailed bool
		attrs    []attribute.KeyValue
	}{
		{
			name:     "model omitted by default",
			detailed: false,
			attrs: []attribute.KeyValue{
				attribute.String(attrProvider, "gemini"),
				attribute.String(attrStatus, StatusSuccess),
			},
		},
		{
			name:     "model included when detailed",
			detailed: true,
			attrs: []attribute.KeyValue{
				attribute.String(attrProvider, "gemini"),
				attribute.String(attrStatus, StatusSuccess),
				attribute.String(attrModel, "gemini-2.5-flash"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newTestMetrics(t, tt.detailed)
			m.RecordLLMCall(context.Background(), "gemini", "gemini-2.5-flash", StatusSuccess, time.Second)

			data := collect(t, reader)
			assert.Equal(t, int64(1), counterValue(t, data["llm_calls_total"], tt.attrs...))
		})
	}
}

func TestMetrics_RecordAgentRun(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordAgentRun(ctx, StatusSuccess, 2, 3*time.Second)
	m.RecordAgentRun(ctx, StatusCapped, 10, 30*time.Second)

	data := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, data["agent_runs_total"], attribute.String(attrStatus, StatusCapped)))

	rounds, ok := data["agent_rounds"].(metricdata.Histogram[int64])
	require.True(t, ok)
	var total uint64
	for _, dp := range rounds.DataPoints {
		total += dp.Count
	}
	assert.Equal(t, uint64(2), total)
}

func TestMetrics_RecordHTTPAndGoogleAPI(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/agent", 200, 100*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationList, StatusSuccess, 50*time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(1), counterValue(t, data["http_requests_total"],
		attribute.String(attrMethod, "POST"),
		attribute.String(attrPath, "/agent"),
		attribute.String(attrStatus, "200")))
	assert.Equal(t, int64(1), counterValue(t, data["google_api_operations_total"],
		attribute.String(attrService, ServiceTasks),
		attribute.String(attrOperation, OperationList),
		attribute.String(attrStatus, StatusSuccess)))
}

func TestMetrics_NilAndZeroAreNoops(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	nilMetrics.RecordHTTPRequest(ctx, "GET", "/health", 200, time.Millisecond)
	nilMetrics.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationList, StatusSuccess, time.Millisecond)
	nilMetrics.RecordToolInvocation(ctx, "tasks.list", StatusSuccess, time.Millisecond)
	nilMetrics.RecordLLMCall(ctx, "gemini", "", StatusSuccess, time.Millisecond)
	nilMetrics.RecordAgentRun(ctx, StatusSuccess, 1, time.Millisecond)

	zero := &Metrics{}
	zero.RecordToolInvocation(ctx, "tasks.list", StatusSuccess, time.Millisecond)
	zero.RecordAgentRun(ctx, StatusSuccess, 1, time.Millisecond)
}
