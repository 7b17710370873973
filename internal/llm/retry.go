package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/tasksagent/internal/logging"
)

// RetryConfig controls WithRetry.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// InitialInterval is the first backoff delay (default 500ms).
	InitialInterval time.Duration

	// MaxInterval caps a single delay (default 10s).
	MaxInterval time.Duration
}

type retryModel struct {
	Model
	config RetryConfig
	logger *slog.Logger
}

// WithRetry retries retryable provider errors with exponential backoff.
// Non-retryable errors and context cancellation return immediately.
func WithRetry(m Model, config RetryConfig, logger *slog.Logger) Model {
	if config.InitialInterval <= 0 {
		config.InitialInterval = 500 * time.Millisecond
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retryModel{Model: m, config: config, logger: logger}
}

func (r *retryModel) Generate(ctx context.Context, req Request) (*AIMessage, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialInterval
	b.MaxInterval = r.config.MaxInterval

	return backoff.Retry(ctx, func() (*AIMessage, error) {
		msg, err := r.Model.Generate(ctx, req)
		if err != nil {
			if !IsRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return msg, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.config.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.logger.WarnContext(ctx, "model call failed, retrying",
				logging.Provider(r.Provider()),
				logging.Err(err),
				slog.Duration("retry_in", next),
			)
		}),
	)
}
