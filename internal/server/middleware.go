package server

import (
	"log/slog"
	"net/http"
	"time"
)

const unmatchedRoute = "unmatched"

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument records metrics and a debug log line for every request and
// turns handler panics into 500 responses. The metric path is the matched
// route pattern, which keeps label cardinality bounded.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("panic while serving request", "panic", p, "path", r.URL.Path)
				rec.status = http.StatusInternalServerError
				writeJSON(rec, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			duration := time.Since(start)
			s.metrics.RecordHTTPRequest(r.Context(), r.Method, route, rec.status, duration)
			s.logger.Debug("HTTP request",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", rec.status),
				slog.Duration("duration", duration))
		}()

		next.ServeHTTP(rec, r)
	})
}
