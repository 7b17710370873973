package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/teemow/tasksagent/internal/agent"
	"github.com/teemow/tasksagent/internal/google"
	"github.com/teemow/tasksagent/internal/instrumentation"
	"github.com/teemow/tasksagent/internal/llm"
	"github.com/teemow/tasksagent/internal/logging"
	"github.com/teemow/tasksagent/internal/tasks"
	"github.com/teemow/tasksagent/internal/tools/tasks_tools"
)

// Task backends selectable with --backend.
const (
	backendGoogle = "google"
	backendMemory = "memory"
)

// newModel builds the language model. Tests replace it.
var newModel = llm.New

// newMemoryBackend builds the in-memory backend. Tests replace it.
var newMemoryBackend = func() *tasks.MemoryBackend {
	return tasks.NewMemoryBackend()
}

// globalOptions are the persistent flags shared by all commands.
type globalOptions struct {
	debug     bool
	logFormat string
	backend   string
	taskList  string
}

func readGlobalOptions(cmd *cobra.Command) (globalOptions, error) {
	var opts globalOptions
	var err error

	flags := cmd.Flags()
	if opts.debug, err = flags.GetBool("debug"); err != nil {
		return opts, err
	}
	if opts.logFormat, err = flags.GetString("log-format"); err != nil {
		return opts, err
	}
	if opts.backend, err = flags.GetString("backend"); err != nil {
		return opts, err
	}
	if opts.taskList, err = flags.GetString("task-list"); err != nil {
		return opts, err
	}

	switch opts.backend {
	case backendGoogle, backendMemory:
	default:
		return opts, fmt.Errorf("invalid backend %q, must be one of: google, memory", opts.backend)
	}
	return opts, nil
}

// setupLogging builds the process logger and installs it as slog default.
func setupLogging(w io.Writer, opts globalOptions) (*slog.Logger, error) {
	level := "info"
	if opts.debug {
		level = "debug"
	}
	logger, err := logging.NewWithWriter(w, level, opts.logFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// app holds the components shared by the ask, serve and mcp commands.
type app struct {
	opts        globalOptions
	logger      *slog.Logger
	provider    *instrumentation.Provider
	backend     tasks.Backend
	tools       *tasks_tools.Registry
	credentials google.CredentialsConfig
}

func newApp(ctx context.Context, opts globalOptions, logger *slog.Logger) (*app, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	a := &app{
		opts:        opts,
		logger:      logger,
		provider:    provider,
		credentials: google.DefaultCredentialsConfig(),
	}

	a.backend, err = a.buildBackend(ctx)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	a.tools, err = tasks_tools.NewRegistry(a.backend,
		tasks_tools.WithMetrics(provider.Metrics()),
		tasks_tools.WithAuditLogger(provider.AuditLogger()),
		tasks_tools.WithLogger(logger),
	)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create tool registry: %w", err)
	}
	return a, nil
}

func (a *app) buildBackend(ctx context.Context) (tasks.Backend, error) {
	if a.opts.backend == backendMemory {
		backend := newMemoryBackend()
		a.logger.Warn("Using the in-memory task backend, changes are not persisted",
			slog.Int("tasks", backend.Len()))
		return backend, nil
	}

	if err := a.credentials.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials config: %w", err)
	}
	httpClient, err := google.NewHTTPClient(ctx, a.credentials)
	if err != nil {
		if errors.Is(err, google.ErrNoCredentials) || errors.Is(err, google.ErrNoToken) {
			return nil, fmt.Errorf("%w\n\n%s", err, google.GetAuthenticationErrorMessage(a.credentials))
		}
		return nil, err
	}

	client, err := tasks.NewClient(ctx, a.opts.taskList, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	client.SetMetrics(a.provider.Metrics())
	return client, nil
}

// newAgent builds the model and the agent loop on top of the app's tools.
func (a *app) newAgent(ctx context.Context, config agent.Config) (*agent.Agent, error) {
	modelConfig := llm.DefaultConfig()
	model, err := newModel(ctx, modelConfig, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	a.logger.Debug("Model configured",
		logging.Provider(model.Provider()),
		slog.String("model", model.Name()),
		slog.String("api_key", logging.SanitizeKey(modelConfig.APIKey)))

	return agent.New(model, a.tools, config,
		agent.WithMetrics(a.provider.Metrics()),
		agent.WithLogger(a.logger),
	)
}

// Close flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("Error during instrumentation shutdown", logging.Err(err))
	}
}
