package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig(\"\") returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.URL == "" {
		t.Error("default database URL should not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadServerConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	data := `
server:
  port: 9090
database:
  url: postgres://db.internal:5432/uptime
redis:
  url: redis://cache.internal:6379/0
probing:
  token: sekrit
  rate_limit: 25
auth:
  api_key_hash: $2a$10$abcdefghijklmnopqrstuv
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig returned error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://db.internal:5432/uptime" {
		t.Errorf("database URL = %q", cfg.Database.URL)
	}
	if cfg.Redis.URL != "redis://cache.internal:6379/0" {
		t.Errorf("redis URL = %q", cfg.Redis.URL)
	}
	if cfg.Probing.Token != "sekrit" {
		t.Errorf("probe token = %q", cfg.Probing.Token)
	}
	if cfg.Probing.RateLimit != 25 {
		t.Errorf("rate limit = %d, want 25", cfg.Probing.RateLimit)
	}
	if cfg.Auth.APIKeyHash == "" {
		t.Error("api key hash should be set")
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("UPTIMEMON_PORT", "7070")
	t.Setenv("UPTIMEMON_DATABASE_URL", "postgres://env:5432/uptime")
	t.Setenv("UPTIMEMON_REDIS_URL", "redis://env:6379")
	t.Setenv("UPTIMEMON_PROBE_TOKEN", "env-token")
	t.Setenv("UPTIMEMON_PROBE_RATE_LIMIT", "10")

	cfg := DefaultServerConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://env:5432/uptime" {
		t.Errorf("database URL = %q", cfg.Database.URL)
	}
	if cfg.Redis.URL != "redis://env:6379" {
		t.Errorf("redis URL = %q", cfg.Redis.URL)
	}
	if cfg.Probing.Token != "env-token" {
		t.Errorf("probe token = %q", cfg.Probing.Token)
	}
	if cfg.Probing.RateLimit != 10 {
		t.Errorf("rate limit = %d, want 10", cfg.Probing.RateLimit)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"empty database url", func(c *ServerConfig) { c.Database.URL = "" }},
		{"zero port", func(c *ServerConfig) { c.Server.Port = 0 }},
		{"port too high", func(c *ServerConfig) { c.Server.Port = 70000 }},
		{"negative rate limit", func(c *ServerConfig) { c.Probing.RateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
