package agent

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for Config.
const (
	DefaultMaxRounds = 10
	DefaultTimeout   = 2 * time.Minute
)

// Config controls one Agent.
type Config struct {
	// MaxRounds bounds ModelTurn/ToolTurn cycles (default: 10)
	MaxRounds int

	// Timeout is the wall-clock budget of one run. Zero disables it.
	Timeout time.Duration

	// Preload fetches the task list before the first model turn (default: true)
	Preload bool

	// PreloadLimit is the limit passed to tasks.list during preload (default: 20)
	PreloadLimit int

	// Language forces the answer language. Empty means the user's language.
	Language string
}

// DefaultConfig returns a Config with defaults taken from environment variables.
func DefaultConfig() Config {
	return Config{
		MaxRounds:    getEnvIntOrDefault("AGENT_MAX_ROUNDS", DefaultMaxRounds),
		Timeout:      getEnvDurationOrDefault("AGENT_TIMEOUT", DefaultTimeout),
		Preload:      getEnvBoolOrDefault("AGENT_PRELOAD", true),
		PreloadLimit: 20,
		Language:     os.Getenv("AGENT_LANGUAGE"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", c.MaxRounds)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Preload && (c.PreloadLimit < 1 || c.PreloadLimit > 100) {
		return fmt.Errorf("preload limit must be between 1 and 100, got %d", c.PreloadLimit)
	}
	return nil
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
