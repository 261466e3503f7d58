package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LocalProvider stores the probe token on the local filesystem.
// This is intended for development and single-host deployments.
type LocalProvider struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewLocalProvider creates a new local filesystem-backed token provider.
// If baseDir is empty, it defaults to ~/.uptimemon.
func NewLocalProvider(baseDir string, logger *slog.Logger) (*LocalProvider, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".uptimemon")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("creating secret directory: %w", err)
	}

	logger.Info("using local token storage", "path", baseDir)

	return &LocalProvider{
		path:   filepath.Join(baseDir, "probe_token"),
		logger: logger,
	}, nil
}

// GetProbeToken returns the stored token, generating and persisting a new
// one on first use.
func (p *LocalProvider) GetProbeToken(ctx context.Context) (string, error) {
	// Check cache first
	p.mu.RLock()
	if p.token != "" {
		defer p.mu.RUnlock()
		return p.token, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" {
		return p.token, nil
	}

	// Try to load from disk
	data, err := os.ReadFile(p.path)
	if err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			p.token = token
			return token, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	// Token doesn't exist, create new one
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(p.path, []byte(token+"\n"), 0600); err != nil {
		return "", fmt.Errorf("writing token file: %w", err)
	}

	p.logger.Info("generated new probe token", "path", p.path)

	p.token = token
	return token, nil
}

// Close releases any resources.
func (p *LocalProvider) Close() error {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
	return nil
}
