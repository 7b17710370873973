package llm

import (
	"fmt"
	"os"
	"strconv"
)

// Supported providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default model names per provider.
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// Config selects and configures a model provider.
type Config struct {
	// Provider is one of gemini, openai, anthropic (default: gemini)
	Provider string

	// Model is the model name (default depends on the provider)
	Model string

	// APIKey for the provider. Optional for OpenAI-compatible servers
	// reached through BaseURL.
	APIKey string

	// BaseURL overrides the provider endpoint, e.g. an Ollama server at
	// http://localhost:11434/v1 with the openai provider.
	BaseURL string

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature for sampling (0.0 to 2.0)
	Temperature float64

	// MaxRetries is the number of retries after a retryable failure.
	MaxRetries int
}

// DefaultConfig returns a Config populated from environment variables.
func DefaultConfig() Config {
	provider := getEnvOrDefault("MODEL_PROVIDER", ProviderGemini)
	return Config{
		Provider:    provider,
		Model:       getEnvOrDefault("MODEL_NAME", DefaultModel(provider)),
		APIKey:      APIKeyFromEnv(provider),
		BaseURL:     getEnvOrDefault("MODEL_BASE_URL", ""),
		MaxTokens:   getEnvIntOrDefault("MODEL_MAX_TOKENS", 4096),
		Temperature: getEnvFloatOrDefault("MODEL_TEMPERATURE", 0),
		MaxRetries:  getEnvIntOrDefault("MODEL_MAX_RETRIES", 2),
	}
}

// DefaultModel returns the default model name for provider.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultGeminiModel
	}
}

// APIKeyFromEnv reads the conventional API key variable of provider.
func APIKeyFromEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return getEnvOrDefault("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY"))
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("%s API key is required", c.Provider)
		}
	case ProviderOpenAI:
		if c.APIKey == "" && c.BaseURL == "" {
			return fmt.Errorf("openai API key is required unless a base URL is set")
		}
	default:
		return fmt.Errorf("invalid model provider %q, must be one of: gemini, openai, anthropic", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", c.Temperature)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
