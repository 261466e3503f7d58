// Package types defines the core domain types shared between the control
// plane and the probe agents.
//
// # Design Principles
//
// 1. Simplicity: Types represent the domain model directly, no ORM abstractions
// 2. Serialization: All types are JSON-serializable for API transport
// 3. Immutability: Uptime events are append-only; only EndTime is ever set later
// 4. Validation: Types include Validate() methods for business rule enforcement
package types

import (
	"fmt"
	"net/url"
	"time"
)

// =============================================================================
// MONITOR
// =============================================================================

// MonitorKind is the check mode of a monitor.
type MonitorKind string

const (
	// MonitorWeb - HTTP(S) reachability of a URL
	MonitorWeb MonitorKind = "web"
	// MonitorPing - ICMP reachability of a host
	MonitorPing MonitorKind = "ping"
	// MonitorPort - TCP connect to host:port
	MonitorPort MonitorKind = "port"
)

// Valid reports whether k is a known monitor kind.
func (k MonitorKind) Valid() bool {
	switch k {
	case MonitorWeb, MonitorPing, MonitorPort:
		return true
	}
	return false
}

// DefaultPort is used when a monitor is created without an explicit port.
const DefaultPort = 443

// ValidFrequencies are the allowed check cadences, in minutes. Each value
// maps to exactly one scheduler bucket.
var ValidFrequencies = []int{1, 5, 10, 30, 60}

// ValidAlertFrequencies are the allowed minimum gaps between two alerts for
// the same monitor, in minutes.
var ValidAlertFrequencies = []int{1, 5, 10, 20, 30, 60, 1440}

// IsValidFrequency reports whether f is an allowed check cadence.
func IsValidFrequency(f int) bool {
	for _, v := range ValidFrequencies {
		if f == v {
			return true
		}
	}
	return false
}

// IsValidAlertFrequency reports whether f is an allowed alert gap.
func IsValidAlertFrequency(f int) bool {
	for _, v := range ValidAlertFrequencies {
		if f == v {
			return true
		}
	}
	return false
}

// Monitor is a user-owned endpoint to be probed periodically.
//
// A monitor belongs to exactly one scheduler bucket (its Frequency). The
// scheduler skips paused monitors entirely: no probes, no events, no alerts.
type Monitor struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`

	Kind MonitorKind `json:"kind"`
	URL  string      `json:"url"`
	Port int         `json:"port"`

	// Frequency is the check cadence in minutes (1, 5, 10, 30 or 60).
	Frequency int `json:"frequency"`
	// AlertFrequency is the minimum gap between alerts in minutes.
	AlertFrequency int `json:"alert_frequency"`

	IsPaused bool `json:"is_paused"`

	// Contacts are display-level references resolved by the delivery worker.
	Contacts []string `json:"contacts,omitempty"`

	LastAlertSentAt *time.Time `json:"last_alert_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is bumped after every completed check and drives due-set
	// selection. Monotonically non-decreasing.
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize fills in defaulted fields on a new monitor.
func (m *Monitor) Normalize() {
	if m.Port == 0 {
		m.Port = DefaultPort
	}
}

// Validate checks business rules for a monitor.
func (m *Monitor) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("kind must be one of 'web', 'ping', 'port'")
	}
	if m.URL == "" {
		return fmt.Errorf("url is required")
	}
	if m.Port < 0 || m.Port > 65535 {
		return fmt.Errorf("port must be in [0, 65535]")
	}
	if !IsValidFrequency(m.Frequency) {
		return fmt.Errorf("frequency must be one of %v minutes", ValidFrequencies)
	}
	if !IsValidAlertFrequency(m.AlertFrequency) {
		return fmt.Errorf("alert_frequency must be one of %v minutes", ValidAlertFrequencies)
	}
	return nil
}

// =============================================================================
// MONITOR AGENT
// =============================================================================

// AgentType distinguishes probe agents from alert-delivery agents. Only
// monitor agents are dispatched to by the probing pipeline.
type AgentType string

const (
	AgentTypeMonitor AgentType = "monitorAgents"
	AgentTypeAlert   AgentType = "alertAgents"
)

// Valid reports whether t is a known agent type.
func (t AgentType) Valid() bool {
	return t == AgentTypeMonitor || t == AgentTypeAlert
}

// MonitorAgent is a registered probe endpoint, one HTTP service per region.
type MonitorAgent struct {
	ID     string    `json:"id"`
	Type   AgentType `json:"type"`
	Region string    `json:"region"`
	URL    string    `json:"url"`

	// Enabled agents of type monitorAgents form the dispatch pool.
	Enabled bool `json:"enabled"`

	// APIKeyHash is the bcrypt hash of the agent's key for inbound calls
	// (heartbeat). Never serialized.
	APIKeyHash string `json:"-"`

	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks business rules for an agent registration.
func (a *MonitorAgent) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("type must be 'monitorAgents' or 'alertAgents'")
	}
	u, err := url.Parse(a.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) endpoint")
	}
	return nil
}

// =============================================================================
// USER
// =============================================================================

// User is the owning principal of monitors. Account management lives in the
// REST collaborator; the pipeline only reads the owning user id.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks business rules for a user.
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}
