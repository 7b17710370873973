// Package logging provides structured logging helpers for tasksagent.
//
// All components log through log/slog. This package builds the process
// logger from the --debug and --log-format flags and keeps attribute names
// consistent across the agent loop, the tool layer and the servers.
//
// # Usage Patterns
//
//	logger, err := logging.New("info", "json")
//	runLogger := logging.WithRunID(logger, runID)
//	runLogger.Info("tool finished",
//	    logging.Tool("tasks.list"),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// API keys are never logged directly; use SanitizeKey. User requests and
// answers are truncated before they reach log lines.
package logging
