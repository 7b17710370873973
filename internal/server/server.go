package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/tasksagent/internal/agent"
	"github.com/teemow/tasksagent/internal/instrumentation"
)

const (
	// DefaultAddr is the default address of the agent API.
	DefaultAddr = ":8080"

	// maxRequestBytes bounds the size of a POST /agent body.
	maxRequestBytes = 64 << 10

	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// Runner executes one agent request.
type Runner interface {
	Run(ctx context.Context, input string) (*agent.Output, error)
}

// AgentRequest is the body of POST /agent.
type AgentRequest struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Config configures the agent API server.
type Config struct {
	// Addr is the listen address (default: ":8080")
	Addr string

	// WriteTimeout must exceed the agent timeout. Zero disables it.
	WriteTimeout time.Duration
}

// Server serves the agent over HTTP.
type Server struct {
	runner  Runner
	health  *HealthChecker
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	addr       string
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records every HTTP request.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHealthChecker replaces the default health checker.
func WithHealthChecker(h *HealthChecker) Option {
	return func(s *Server) {
		if h != nil {
			s.health = h
		}
	}
}

// New creates a Server.
func New(config Config, runner Runner, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}

	s := &Server{
		runner: runner,
		health: NewHealthChecker(nil),
		logger: slog.Default(),
		addr:   config.Addr,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	return s, nil
}

// Handler returns the routed and instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /agent", s.handleAgent)
	s.health.RegisterHealthEndpoints(mux)
	return s.instrument(mux)
}

// Health returns the server's health checker.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting agent API server", "addr", ln.Addr().String())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.logger.Info("shutting down agent API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req AgentRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	out, err := s.runner.Run(r.Context(), message)
	if err != nil {
		s.logger.Error("Agent request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: fmt.Sprintf("failed to process request: %v", err),
		})
		return
	}
	writeJSON(w, http.StatusOK, out)
}
