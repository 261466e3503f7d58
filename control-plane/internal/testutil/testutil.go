// Package testutil provides testing utilities and fixtures for the control plane.
//
// This package contains:
//   - Test helper functions (loggers, time helpers)
//   - Fixture factories for domain types (users, monitors, agents, events, alerts)
//
// # Usage
//
// Fixtures use functional options for customization:
//
//	mon := testutil.FixtureMonitor()
//	mon := testutil.FixtureMonitor(func(m *types.Monitor) {
//		m.Kind = types.MonitorPort
//		m.Port = 9090
//	})
package testutil

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// NewTestLogger returns a logger that discards all output.
// Use for tests where logging output is not needed.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewVerboseTestLogger returns a logger that writes to stderr.
// Use for debugging test failures.
func NewVerboseTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// =============================================================================
// USER FIXTURES
// =============================================================================

// FixtureUser creates a test user with sensible defaults.
func FixtureUser(overrides ...func(*types.User)) *types.User {
	user := &types.User{
		ID:        uuid.New().String(),
		Email:     "user-" + uuid.New().String()[:8] + "@example.com",
		Name:      "Test User",
		CreatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(user)
	}

	return user
}

// =============================================================================
// MONITOR FIXTURES
// =============================================================================

// FixtureMonitor creates a test web monitor with sensible defaults.
// Use overrides to customize specific fields.
func FixtureMonitor(overrides ...func(*types.Monitor)) *types.Monitor {
	now := time.Now()
	monitor := &types.Monitor{
		ID:             uuid.New().String(),
		UserID:         uuid.New().String(),
		Name:           "test-monitor-" + uuid.New().String()[:8],
		Kind:           types.MonitorWeb,
		URL:            "https://example.com",
		Port:           types.DefaultPort,
		Frequency:      5,
		AlertFrequency: 10,
		IsPaused:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, override := range overrides {
		override(monitor)
	}

	return monitor
}

// FixtureMonitorPaused creates a paused monitor.
func FixtureMonitorPaused(overrides ...func(*types.Monitor)) *types.Monitor {
	return FixtureMonitor(append([]func(*types.Monitor){
		func(m *types.Monitor) {
			m.IsPaused = true
		},
	}, overrides...)...)
}

// FixtureMonitorPing creates a ping monitor.
func FixtureMonitorPing(overrides ...func(*types.Monitor)) *types.Monitor {
	return FixtureMonitor(append([]func(*types.Monitor){
		func(m *types.Monitor) {
			m.Kind = types.MonitorPing
			m.URL = "203.0.113.7"
		},
	}, overrides...)...)
}

// FixtureMonitorPort creates a port monitor.
func FixtureMonitorPort(overrides ...func(*types.Monitor)) *types.Monitor {
	return FixtureMonitor(append([]func(*types.Monitor){
		func(m *types.Monitor) {
			m.Kind = types.MonitorPort
			m.URL = "203.0.113.7"
			m.Port = 5432
		},
	}, overrides...)...)
}

// =============================================================================
// AGENT FIXTURES
// =============================================================================

// FixtureAgent creates an enabled monitor agent with sensible defaults.
func FixtureAgent(overrides ...func(*types.MonitorAgent)) *types.MonitorAgent {
	agent := &types.MonitorAgent{
		ID:        uuid.New().String(),
		Type:      types.AgentTypeMonitor,
		Region:    "us-east",
		URL:       "https://agent-" + uuid.New().String()[:8] + ".example.com",
		Enabled:   true,
		CreatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(agent)
	}

	return agent
}

// FixtureAgentDisabled creates a disabled monitor agent.
func FixtureAgentDisabled(overrides ...func(*types.MonitorAgent)) *types.MonitorAgent {
	return FixtureAgent(append([]func(*types.MonitorAgent){
		func(a *types.MonitorAgent) {
			a.Enabled = false
		},
	}, overrides...)...)
}

// =============================================================================
// EVENT FIXTURES
// =============================================================================

// FixtureEvent creates an Up uptime event for the given monitor.
func FixtureEvent(monitorID string, overrides ...func(*types.UptimeEvent)) *types.UptimeEvent {
	event := &types.UptimeEvent{
		ID:             uuid.New().String(),
		MonitorID:      monitorID,
		UserID:         uuid.New().String(),
		Kind:           types.MonitorWeb,
		Availability:   types.AvailabilityUp,
		Ping:           types.PingReachable,
		Port:           types.PortOpen,
		ResponseTimeMs: 42,
		Timestamp:      time.Now(),
	}

	for _, override := range overrides {
		override(event)
	}

	return event
}

// FixtureEventDown creates an adverse web event (everything adverse).
func FixtureEventDown(monitorID string, overrides ...func(*types.UptimeEvent)) *types.UptimeEvent {
	return FixtureEvent(monitorID, append([]func(*types.UptimeEvent){
		func(e *types.UptimeEvent) {
			e.Availability = types.AvailabilityDown
			e.Ping = types.PingUnreachable
			e.Port = types.PortClosed
			e.Reason = "503 Service Unavailable"
		},
	}, overrides...)...)
}

// =============================================================================
// PROBE OUTCOME FIXTURES
// =============================================================================

// FixtureOutcomeUp creates a fully positive probe outcome.
func FixtureOutcomeUp(overrides ...func(*types.ProbeOutcome)) *types.ProbeOutcome {
	outcome := &types.ProbeOutcome{
		Availability:   types.AvailabilityUp,
		Ping:           types.PingReachable,
		Port:           types.PortOpen,
		ResponseTimeMs: 87,
	}

	for _, override := range overrides {
		override(outcome)
	}

	return outcome
}

// FixtureOutcomeDown creates a fully adverse probe outcome.
func FixtureOutcomeDown(overrides ...func(*types.ProbeOutcome)) *types.ProbeOutcome {
	return FixtureOutcomeUp(append([]func(*types.ProbeOutcome){
		func(o *types.ProbeOutcome) {
			o.Availability = types.AvailabilityDown
			o.Ping = types.PingUnreachable
			o.Port = types.PortClosed
			o.Reason = "connection refused"
		},
	}, overrides...)...)
}

// =============================================================================
// ALERT FIXTURES
// =============================================================================

// FixtureAlert creates a pending alert for the given monitor.
func FixtureAlert(userID, monitorID string, overrides ...func(*types.Alert)) *types.Alert {
	alert := &types.Alert{
		ID:        uuid.New().String(),
		UserID:    userID,
		MonitorID: monitorID,
		URL:       "https://example.com",
		Tries:     0,
		MaxTries:  types.DefaultAlertMaxTries,
		CreatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(alert)
	}

	return alert
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Ptr returns a pointer to the given value.
// Useful for setting optional fields in fixtures.
func Ptr[T any](v T) *T {
	return &v
}

// TimeAgo returns a time in the past by the given duration.
func TimeAgo(d time.Duration) time.Time {
	return time.Now().Add(-d)
}

// TimeAgoPtr returns a pointer to a time in the past.
func TimeAgoPtr(d time.Duration) *time.Time {
	t := time.Now().Add(-d)
	return &t
}
