package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// New builds the configured provider, wrapped with retries when
// cfg.MaxRetries is positive.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model config: %w", err)
	}

	var (
		m   Model
		err error
	)
	switch cfg.Provider {
	case ProviderGemini:
		m, err = NewGemini(ctx, cfg)
	case ProviderOpenAI:
		m, err = NewOpenAI(cfg)
	case ProviderAnthropic:
		m, err = NewAnthropic(cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxRetries > 0 {
		m = WithRetry(m, RetryConfig{MaxRetries: cfg.MaxRetries}, logger)
	}
	return m, nil
}
