// Server configuration file handling.
//
// # Configuration Sources
//
// Configuration is loaded from (in order of precedence):
// 1. Command-line flags
// 2. Environment variables (UPTIMEMON_*)
// 3. Config file (YAML)
// 4. Defaults
//
// # Example Config File
//
//	server:
//	  port: 8080
//
//	database:
//	  url: postgres://localhost:5432/uptimemon?sslmode=disable
//
//	redis:
//	  url: redis://localhost:6379/0
//
//	probing:
//	  token: shared-agent-secret
//	  rate_limit: 50
//
//	auth:
//	  api_key_hash: $2a$10$...
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the complete control plane configuration.
type ServerConfig struct {
	Server   HTTPConfig     `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Probing  ProbingConfig  `yaml:"probing"`
	Auth     AuthConfig     `yaml:"auth"`
}

// HTTPConfig defines the listening socket.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig defines the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig defines the optional Redis connection used for the response
// cache, the probe-sample buffer and scheduler tick locks. An empty URL
// disables all three.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ProbingConfig defines outbound probe behavior.
type ProbingConfig struct {
	// Token is the shared secret sent to agents with every probe. When
	// empty it is resolved through the secrets provider.
	Token string `yaml:"token"`

	// RateLimit caps outbound probes per second across all workers.
	// Zero means unlimited.
	RateLimit int `yaml:"rate_limit"`
}

// AuthConfig defines inbound API authentication.
type AuthConfig struct {
	// APIKeyHash is the bcrypt hash of the operator key protecting mutating
	// endpoints. When empty the API runs open and logs a warning.
	APIKeyHash string `yaml:"api_key_hash"`
}

// DefaultServerConfig returns a config with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: HTTPConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			URL: "postgres://localhost:5432/uptimemon?sslmode=disable",
		},
		Probing: ProbingConfig{
			RateLimit: DefaultProbeRateLimit,
		},
	}
}

// LoadServerConfig loads configuration from a YAML file. An empty path
// returns defaults.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides.
// Environment variables use the UPTIMEMON_ prefix:
// - UPTIMEMON_PORT
// - UPTIMEMON_DATABASE_URL
// - UPTIMEMON_REDIS_URL
// - UPTIMEMON_PROBE_TOKEN
// - UPTIMEMON_PROBE_RATE_LIMIT
// - UPTIMEMON_API_KEY_HASH
func (c *ServerConfig) ApplyEnvOverrides() {
	if v := os.Getenv("UPTIMEMON_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("UPTIMEMON_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("UPTIMEMON_REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("UPTIMEMON_PROBE_TOKEN"); v != "" {
		c.Probing.Token = v
	}
	if v := os.Getenv("UPTIMEMON_PROBE_RATE_LIMIT"); v != "" {
		if rl, err := strconv.Atoi(v); err == nil {
			c.Probing.RateLimit = rl
		}
	}
	if v := os.Getenv("UPTIMEMON_API_KEY_HASH"); v != "" {
		c.Auth.APIKeyHash = v
	}
}

// Validate checks that required configuration is present.
func (c *ServerConfig) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535]")
	}
	if c.Probing.RateLimit < 0 {
		return fmt.Errorf("probing.rate_limit must not be negative")
	}
	return nil
}
