// Package secrets resolves the shared probe token that the control plane
// presents to monitor agents.
//
// This package defines a Provider interface with two implementations: a
// 1Password Connect backend for production environments and a local
// file-based fallback for development. An explicitly configured token
// bypasses providers entirely; resolution only runs when configuration
// leaves the token empty.
package secrets

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
)

// DefaultTokenName is the item/file name the probe token is stored under.
const DefaultTokenName = "uptimemon-probe-token"

// Provider resolves the shared probe token.
type Provider interface {
	// GetProbeToken returns the token, creating and persisting one if the
	// backend holds none yet.
	GetProbeToken(ctx context.Context) (string, error)

	// Close releases any resources held by the provider.
	Close() error
}

// GenerateToken creates a new random probe token.
func GenerateToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(randomBytes), nil
}

// Config holds configuration for the secrets backend.
type Config struct {
	// Backend specifies which backend to use: "1password", "local", or "auto".
	// "auto" (default) uses 1Password if configured, otherwise local.
	Backend string

	// 1Password Connect configuration
	OnePassword OnePasswordConfig

	// Local storage directory (default: ~/.uptimemon)
	LocalDir string
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		Backend: getEnv("UPTIMEMON_SECRETS_BACKEND", "auto"),
		OnePassword: OnePasswordConfig{
			Host:    os.Getenv("OP_CONNECT_HOST"),
			Token:   os.Getenv("OP_CONNECT_TOKEN"),
			VaultID: os.Getenv("OP_VAULT_ID"),
		},
		LocalDir: os.Getenv("UPTIMEMON_SECRET_DIR"),
	}
}

// NewProvider creates a Provider based on configuration.
func NewProvider(cfg Config, logger *slog.Logger) (Provider, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "auto"
	}

	switch backend {
	case "1password":
		return NewOnePasswordProvider(cfg.OnePassword, logger)

	case "local":
		return NewLocalProvider(cfg.LocalDir, logger)

	case "auto":
		// Try 1Password first, fall back to local
		if cfg.OnePassword.configured() {
			p, err := NewOnePasswordProvider(cfg.OnePassword, logger)
			if err != nil {
				logger.Warn("failed to initialize 1Password, falling back to local storage",
					"error", err)
				return NewLocalProvider(cfg.LocalDir, logger)
			}
			return p, nil
		}
		logger.Info("1Password Connect not configured, using local token storage")
		return NewLocalProvider(cfg.LocalDir, logger)

	default:
		return nil, fmt.Errorf("unknown secrets backend: %s", backend)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
