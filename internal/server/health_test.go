package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, healthStatusOK, resp.Status)
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *HealthChecker, sc *ServerContext)
		wantCode   int
		wantChecks map[string]string
	}{
		{
			name:     "ready",
			setup:    func(*HealthChecker, *ServerContext) {},
			wantCode: http.StatusOK,
			wantChecks: map[string]string{
				"ready":    healthStatusOK,
				"shutdown": healthStatusOK,
			},
		},
		{
			name:     "not ready",
			setup:    func(h *HealthChecker, _ *ServerContext) { h.SetReady(false) },
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]string{
				"ready":    healthStatusNotReady,
				"shutdown": healthStatusOK,
			},
		},
		{
			name:     "shutting down",
			setup:    func(_ *HealthChecker, sc *ServerContext) { sc.Shutdown() },
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]string{
				"ready":    healthStatusOK,
				"shutdown": healthStatusShuttingDown,
			},
		},
		{
			name: "failing check",
			setup: func(h *HealthChecker, _ *ServerContext) {
				h.AddCheck("credentials", func(context.Context) error { return errors.New("no token") })
				h.AddCheck("model", func(context.Context) error { return nil })
			},
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]string{
				"ready":       healthStatusOK,
				"shutdown":    healthStatusOK,
				"credentials": "failed: no token",
				"model":       healthStatusOK,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewServerContext(context.Background())
			h := NewHealthChecker(sc)
			tt.setup(h, sc)

			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantChecks, decodeHealth(t, rec).Checks)
		})
	}
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := NewServerContext(context.Background())
	assert.False(t, sc.IsShutdown())

	sc.Shutdown()
	sc.Shutdown()

	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)
}
