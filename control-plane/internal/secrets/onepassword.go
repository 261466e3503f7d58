package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1Password/connect-sdk-go/connect"
	"github.com/1Password/connect-sdk-go/onepassword"
)

// OnePasswordProvider stores the probe token in 1Password using the
// Connect API.
//
// Configuration is via environment variables:
//   - OP_CONNECT_HOST: URL of the 1Password Connect server
//   - OP_CONNECT_TOKEN: Access token for the Connect server
//   - OP_VAULT_ID: UUID of the vault to store the token in
type OnePasswordProvider struct {
	client  connect.Client
	vaultID string
	logger  *slog.Logger

	// Cache to avoid repeated API calls
	mu    sync.RWMutex
	token string
}

// OnePasswordConfig holds configuration for 1Password Connect.
type OnePasswordConfig struct {
	Host    string // OP_CONNECT_HOST
	Token   string // OP_CONNECT_TOKEN
	VaultID string // OP_VAULT_ID
}

func (c OnePasswordConfig) configured() bool {
	return c.Host != "" && c.Token != "" && c.VaultID != ""
}

// NewOnePasswordProvider creates a new 1Password-backed token provider.
func NewOnePasswordProvider(cfg OnePasswordConfig, logger *slog.Logger) (*OnePasswordProvider, error) {
	if !cfg.configured() {
		return nil, fmt.Errorf("1Password configuration incomplete: host, token, and vault_id are required")
	}

	client := connect.NewClientWithUserAgent(cfg.Host, cfg.Token, "uptimemon-control-plane")

	return &OnePasswordProvider{
		client:  client,
		vaultID: cfg.VaultID,
		logger:  logger,
	}, nil
}

// GetProbeToken returns the token from the vault, creating the item if it
// does not exist yet.
func (p *OnePasswordProvider) GetProbeToken(ctx context.Context) (string, error) {
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

	// Try to get existing token
	token, err := p.getTokenFromVault()
	if err != nil {
		return "", fmt.Errorf("checking for existing token: %w", err)
	}

	if token != "" {
		p.token = token
		return token, nil
	}

	// Token doesn't exist, create new one
	p.logger.Info("creating new probe token", "name", DefaultTokenName)

	token, err = GenerateToken()
	if err != nil {
		return "", err
	}

	if err := p.storeTokenInVault(token); err != nil {
		return "", fmt.Errorf("storing token in 1Password: %w", err)
	}

	p.token = token
	return token, nil
}

// Close releases any resources.
func (p *OnePasswordProvider) Close() error {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
	return nil
}

// getTokenFromVault retrieves the token item from 1Password by title.
func (p *OnePasswordProvider) getTokenFromVault() (string, error) {
	items, err := p.client.GetItemsByTitle(DefaultTokenName, p.vaultID)
	if err != nil {
		if isNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("listing items: %w", err)
	}

	if len(items) == 0 {
		return "", nil
	}

	// Get the full item (including fields)
	item, err := p.client.GetItem(items[0].ID, p.vaultID)
	if err != nil {
		return "", fmt.Errorf("getting item: %w", err)
	}

	for _, field := range item.Fields {
		if field.ID == "credential" || field.Label == "credential" {
			return field.Value, nil
		}
	}

	return "", nil
}

// storeTokenInVault stores a new token item in 1Password.
func (p *OnePasswordProvider) storeTokenInVault(token string) error {
	item := &onepassword.Item{
		Title:    DefaultTokenName,
		Category: onepassword.ApiCredential,
		Vault:    onepassword.ItemVault{ID: p.vaultID},
		Fields: []*onepassword.ItemField{
			{
				ID:    "credential",
				Label: "credential",
				Type:  "CONCEALED",
				Value: token,
			},
		},
	}

	if _, err := p.client.CreateItem(item, p.vaultID); err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// isNotFoundError checks if an error is a "not found" error from 1Password.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "no items")
}
