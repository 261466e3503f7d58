// Package config handles agent configuration loading and validation.
//
// # Configuration Sources
//
// Configuration is loaded from (in order of precedence):
// 1. Command-line flags
// 2. Environment variables (UPTIMEMON_AGENT_*)
// 3. Config file (YAML)
// 4. Defaults
//
// # Example Config File
//
//	server:
//	  listen: :9090
//
//	agent:
//	  region: us-east
//	  token: upmon_probe_xxx
//
//	probing:
//	  web_timeout: 5s
//	  ping_timeout: 3s
//	  port_timeout: 5s
//	  ping_path: /usr/bin/ping
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete agent configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Agent   AgentConfig   `yaml:"agent"`
	Probing ProbingConfig `yaml:"probing"`
}

// ServerConfig defines how the agent listens for probe requests.
type ServerConfig struct {
	Listen string `yaml:"listen"` // e.g., :9090
}

// AgentConfig defines agent identity and the shared probe token.
type AgentConfig struct {
	Region string `yaml:"region"` // Region identifier, informational
	Token  string `yaml:"token"`  // Shared token expected on every probe request
}

// ProbingConfig defines per-kind probe execution limits.
type ProbingConfig struct {
	WebTimeout  time.Duration `yaml:"web_timeout"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
	PortTimeout time.Duration `yaml:"port_timeout"`

	// PingPath is the path to the system ping binary. Default: "ping"
	PingPath string `yaml:"ping_path,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: ":9090",
		},
		Probing: ProbingConfig{
			WebTimeout:  5 * time.Second,
			PingTimeout: 3 * time.Second,
			PortTimeout: 5 * time.Second,
			PingPath:    "ping",
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Agent.Token == "" {
		return fmt.Errorf("agent.token is required")
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
// Environment variables use the UPTIMEMON_AGENT_ prefix:
// - UPTIMEMON_AGENT_LISTEN
// - UPTIMEMON_AGENT_REGION
// - UPTIMEMON_AGENT_TOKEN
// - UPTIMEMON_AGENT_PING_PATH
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("UPTIMEMON_AGENT_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("UPTIMEMON_AGENT_REGION"); v != "" {
		c.Agent.Region = v
	}
	if v := os.Getenv("UPTIMEMON_AGENT_TOKEN"); v != "" {
		c.Agent.Token = v
	}
	if v := os.Getenv("UPTIMEMON_AGENT_PING_PATH"); v != "" {
		c.Probing.PingPath = v
	}
}
