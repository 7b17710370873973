package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoCredentials is returned when the OAuth client secrets file is missing.
var ErrNoCredentials = errors.New("Google OAuth client credentials not found")

// CredentialsConfig locates the OAuth client secrets and the saved token.
type CredentialsConfig struct {
	// CredentialsFile is the OAuth client secrets JSON downloaded from the
	// Google Cloud console.
	CredentialsFile string

	// TokenFile holds the saved user token (access + refresh) as JSON.
	TokenFile string

	// Scopes requested for the token. Defaults to DefaultOAuthScopes.
	Scopes []string
}

// DefaultCredentialsConfig returns the configuration from TASKS_CREDENTIALS_FILE
// and TASKS_TOKEN_FILE, falling back to credentials.json and token.json in
// the working directory.
func DefaultCredentialsConfig() CredentialsConfig {
	return CredentialsConfig{
		CredentialsFile: getEnvOrDefault("TASKS_CREDENTIALS_FILE", "credentials.json"),
		TokenFile:       getEnvOrDefault("TASKS_TOKEN_FILE", "token.json"),
		Scopes:          DefaultOAuthScopes,
	}
}

// Validate checks that both file paths are set.
func (c CredentialsConfig) Validate() error {
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials file path is required")
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token file path is required")
	}
	return nil
}

// LoadOAuthConfig parses the client secrets file into an oauth2.Config.
func LoadOAuthConfig(path string, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoCredentials, path)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	return conf, nil
}

// GetTokenSource returns a token source that refreshes the saved token and
// writes refreshed tokens back to the token file.
func GetTokenSource(ctx context.Context, cfg CredentialsConfig) (oauth2.TokenSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conf, err := LoadOAuthConfig(cfg.CredentialsFile, cfg.Scopes...)
	if err != nil {
		return nil, err
	}

	provider := NewFileTokenProvider(cfg.TokenFile)
	tok, err := provider.Token(ctx)
	if err != nil {
		return nil, err
	}

	return oauth2.ReuseTokenSource(tok,
		newPersistingTokenSource(conf.TokenSource(ctx, tok), provider, tok)), nil
}

// NewHTTPClient returns an HTTP client authenticated with the saved token.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func NewHTTPClient(ctx context.Context, cfg CredentialsConfig) (*http.Client, error) {
	ts, err := GetTokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
	}, nil
}

// GetAuthenticationErrorMessage explains how to provide credentials.
func GetAuthenticationErrorMessage(cfg CredentialsConfig) string {
	return fmt.Sprintf(`Google Tasks credentials are not available.

Place the OAuth client secrets at %s (set TASKS_CREDENTIALS_FILE to change)
and a saved OAuth token with the %s scope at %s (set TASKS_TOKEN_FILE to change).

Alternatively, run with --backend memory to use an in-process task list.`,
		cfg.CredentialsFile, TasksScope, cfg.TokenFile)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
