package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/tasksagent/internal/agent"
	"github.com/teemow/tasksagent/internal/google"
	"github.com/teemow/tasksagent/internal/instrumentation"
	"github.com/teemow/tasksagent/internal/server"
)

// writeTimeoutMargin is added to the agent timeout for the HTTP write timeout.
const writeTimeoutMargin = 10 * time.Second

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server that runs the agent for every request.

Endpoints:
  POST /agent   {"message": "..."} -> {"answer", "success", "used_tools", "llm_calls"}
  GET  /health  {"status": "ok"}
  GET  /healthz, /readyz  Kubernetes probes

Prometheus metrics are served on a dedicated port (--metrics-addr).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, httpAddr, MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			})
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", getEnvOrDefault("HTTP_ADDR", server.DefaultAddr), "HTTP server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", getEnvBoolOrDefault("METRICS_ENABLED", true), "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", getEnvOrDefault("METRICS_ADDR", server.DefaultMetricsAddr), "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cmd *cobra.Command, httpAddr string, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogging(cmd.ErrOrStderr(), opts)
	if err != nil {
		return err
	}

	a, err := newApp(shutdownCtx, opts, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	agentConfig := agent.DefaultConfig()
	ag, err := a.newAgent(shutdownCtx, agentConfig)
	if err != nil {
		return err
	}

	serverContext := server.NewServerContext(shutdownCtx)
	srv, err := server.New(server.Config{Addr: httpAddr, WriteTimeout: serveWriteTimeout(agentConfig.Timeout)}, ag,
		server.WithMetrics(a.provider.Metrics()),
		server.WithLogger(logger),
		server.WithHealthChecker(server.NewHealthChecker(serverContext)),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if opts.backend == backendGoogle {
		srv.Health().AddCheck("credentials", credentialsCheck(a.credentials.TokenFile))
	}

	errCh := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if metricsServerEnabled(metricsConfig, a.provider) {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: a.provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				errCh <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-shutdownCtx.Done():
		logger.Info("Shutdown signal received, stopping servers")
	case serveErr = <-errCh:
	}

	serverContext.Shutdown()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Error during HTTP server shutdown", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("Error during metrics server shutdown", "error", err)
		}
	}
	return serveErr
}

// serveWriteTimeout leaves room for a full agent run before the HTTP write
// deadline. Zero means no deadline.
func serveWriteTimeout(agentTimeout time.Duration) time.Duration {
	if agentTimeout <= 0 {
		return 0
	}
	return agentTimeout + writeTimeoutMargin
}

// credentialsCheck reports not ready until a token has been saved.
func credentialsCheck(tokenFile string) server.CheckFunc {
	tokens := google.NewFileTokenProvider(tokenFile)
	return func(context.Context) error {
		if !tokens.HasToken() {
			return google.ErrNoToken
		}
		return nil
	}
}

// metricsServerEnabled reports whether the dedicated metrics server should run.
// Only the prometheus exporter is served over HTTP.
func metricsServerEnabled(cfg MetricsConfig, provider *instrumentation.Provider) bool {
	if !cfg.Enabled || provider == nil || !provider.Enabled() {
		return false
	}
	exporter := provider.MetricsExporter()
	return exporter == "" || exporter == instrumentation.ExporterPrometheus
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
