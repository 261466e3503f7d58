package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vigil-net/uptime-mon/control-plane/internal/testutil"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) < 32 {
		t.Errorf("token suspiciously short: %d chars", len(a))
	}

	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Error("two generated tokens must differ")
	}
}

func TestLocalProviderGenerateIfMissing(t *testing.T) {
	dir := t.TempDir()
	logger := testutil.NewTestLogger()

	p, err := NewLocalProvider(dir, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	token, err := p.GetProbeToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected generated token")
	}

	// The token file exists with restrictive permissions.
	info, err := os.Stat(filepath.Join(dir, "probe_token"))
	if err != nil {
		t.Fatalf("expected token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	// A second call returns the cached value.
	again, err := p.GetProbeToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != token {
		t.Error("expected stable token across calls")
	}
}

func TestLocalProviderPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	logger := testutil.NewTestLogger()

	first, err := NewLocalProvider(dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	token, err := first.GetProbeToken(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewLocalProvider(dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	reloaded, err := second.GetProbeToken(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded != token {
		t.Errorf("expected reloaded token %q, got %q", token, reloaded)
	}
}

func TestLocalProviderReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "probe_token"), []byte("pre-seeded-token\n"), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := NewLocalProvider(dir, testutil.NewTestLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	token, err := p.GetProbeToken(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if token != "pre-seeded-token" {
		t.Errorf("expected pre-seeded token, got %q", token)
	}
}

func TestNewProviderBackendSelection(t *testing.T) {
	logger := testutil.NewTestLogger()

	t.Run("local explicit", func(t *testing.T) {
		p, err := NewProvider(Config{Backend: "local", LocalDir: t.TempDir()}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer p.Close()
		if _, ok := p.(*LocalProvider); !ok {
			t.Errorf("expected *LocalProvider, got %T", p)
		}
	})

	t.Run("auto without 1password falls back to local", func(t *testing.T) {
		p, err := NewProvider(Config{Backend: "auto", LocalDir: t.TempDir()}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer p.Close()
		if _, ok := p.(*LocalProvider); !ok {
			t.Errorf("expected *LocalProvider, got %T", p)
		}
	})

	t.Run("empty backend means auto", func(t *testing.T) {
		p, err := NewProvider(Config{LocalDir: t.TempDir()}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer p.Close()
	})

	t.Run("1password without config errors", func(t *testing.T) {
		if _, err := NewProvider(Config{Backend: "1password"}, logger); err == nil {
			t.Error("expected error for incomplete 1Password config")
		}
	})

	t.Run("unknown backend errors", func(t *testing.T) {
		if _, err := NewProvider(Config{Backend: "vault"}, logger); err == nil {
			t.Error("expected error for unknown backend")
		}
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("UPTIMEMON_SECRETS_BACKEND", "local")
	t.Setenv("UPTIMEMON_SECRET_DIR", "/tmp/uptimemon-test")
	t.Setenv("OP_CONNECT_HOST", "https://op.example.com")
	t.Setenv("OP_CONNECT_TOKEN", "op-token")
	t.Setenv("OP_VAULT_ID", "vault-1")

	cfg := ConfigFromEnv()
	if cfg.Backend != "local" {
		t.Errorf("expected backend local, got %q", cfg.Backend)
	}
	if cfg.LocalDir != "/tmp/uptimemon-test" {
		t.Errorf("expected local dir from env, got %q", cfg.LocalDir)
	}
	if !cfg.OnePassword.configured() {
		t.Error("expected 1Password config to be complete")
	}
}
