package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when the token file does not exist.
var ErrNoToken = errors.New("no saved Google OAuth token found")

// TokenProvider supplies the OAuth token used for Google API calls.
type TokenProvider interface {
	// Token returns the stored token.
	Token(ctx context.Context) (*oauth2.Token, error)

	// HasToken reports whether a token is available.
	HasToken() bool
}

// FileTokenProvider reads and writes an oauth2.Token as JSON on disk.
type FileTokenProvider struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenProvider creates a token provider backed by path.
func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path}
}

// Path returns the token file location.
func (p *FileTokenProvider) Path() string {
	return p.path
}

// Token loads the token from disk.
func (p *FileTokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoToken, p.path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", p.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds neither an access nor a refresh token", p.path)
	}
	return &tok, nil
}

// HasToken checks if the token file exists.
func (p *FileTokenProvider) HasToken() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

// Save writes the token with owner-only permissions.
func (p *FileTokenProvider) Save(tok *oauth2.Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	if err := os.WriteFile(p.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// persistingTokenSource writes refreshed tokens back to the provider so the
// next process start does not need to refresh again.
type persistingTokenSource struct {
	base     oauth2.TokenSource
	provider *FileTokenProvider
	logger   *slog.Logger

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(base oauth2.TokenSource, provider *FileTokenProvider, initial *oauth2.Token) *persistingTokenSource {
	return &persistingTokenSource{base: base, provider: provider, logger: slog.Default(), last: initial.AccessToken}
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.provider.Save(tok); err != nil {
			// The refreshed token is still usable for this process.
			s.logger.Warn("Failed to save refreshed Google token, it will be refreshed again on the next start",
				slog.String("path", s.provider.Path()),
				slog.String("error", err.Error()))
		}
	}
	return tok, nil
}
