package testutil

import (
	"testing"
	"time"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

func TestFixtureMonitor(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		mon := FixtureMonitor()
		if mon.ID == "" {
			t.Error("expected monitor to have ID")
		}
		if mon.Name == "" {
			t.Error("expected monitor to have Name")
		}
		if mon.Kind != types.MonitorWeb {
			t.Errorf("expected kind %s, got %s", types.MonitorWeb, mon.Kind)
		}
		if err := mon.Validate(); err != nil {
			t.Errorf("expected valid monitor, got error: %v", err)
		}
	})

	t.Run("with overrides", func(t *testing.T) {
		mon := FixtureMonitor(func(m *types.Monitor) {
			m.Name = "custom-monitor"
			m.Frequency = 60
		})
		if mon.Name != "custom-monitor" {
			t.Errorf("expected name 'custom-monitor', got %s", mon.Name)
		}
		if mon.Frequency != 60 {
			t.Errorf("expected frequency 60, got %d", mon.Frequency)
		}
	})

	t.Run("paused variant", func(t *testing.T) {
		mon := FixtureMonitorPaused()
		if !mon.IsPaused {
			t.Error("expected paused monitor")
		}
	})

	t.Run("ping variant", func(t *testing.T) {
		mon := FixtureMonitorPing()
		if mon.Kind != types.MonitorPing {
			t.Errorf("expected kind %s, got %s", types.MonitorPing, mon.Kind)
		}
		if err := mon.Validate(); err != nil {
			t.Errorf("expected valid monitor, got error: %v", err)
		}
	})

	t.Run("port variant", func(t *testing.T) {
		mon := FixtureMonitorPort()
		if mon.Kind != types.MonitorPort {
			t.Errorf("expected kind %s, got %s", types.MonitorPort, mon.Kind)
		}
		if mon.Port != 5432 {
			t.Errorf("expected port 5432, got %d", mon.Port)
		}
	})
}

func TestFixtureAgent(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		agent := FixtureAgent()
		if agent.ID == "" {
			t.Error("expected agent to have ID")
		}
		if !agent.Enabled {
			t.Error("expected enabled agent")
		}
		if agent.Type != types.AgentTypeMonitor {
			t.Errorf("expected type %s, got %s", types.AgentTypeMonitor, agent.Type)
		}
		if err := agent.Validate(); err != nil {
			t.Errorf("expected valid agent, got error: %v", err)
		}
	})

	t.Run("with overrides", func(t *testing.T) {
		agent := FixtureAgent(func(a *types.MonitorAgent) {
			a.Region = "eu-west"
		})
		if agent.Region != "eu-west" {
			t.Errorf("expected region 'eu-west', got %s", agent.Region)
		}
	})

	t.Run("disabled variant", func(t *testing.T) {
		agent := FixtureAgentDisabled()
		if agent.Enabled {
			t.Error("expected disabled agent")
		}
	})
}

func TestFixtureEvent(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		event := FixtureEvent("mon-1")
		if event.MonitorID != "mon-1" {
			t.Errorf("expected monitor ID 'mon-1', got %s", event.MonitorID)
		}
		if !event.Positive() {
			t.Error("expected positive event")
		}
	})

	t.Run("down", func(t *testing.T) {
		event := FixtureEventDown("mon-1")
		if event.Positive() {
			t.Error("expected adverse event")
		}
		if event.Reason == "" {
			t.Error("expected reason on adverse event")
		}
	})
}

func TestFixtureOutcome(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		outcome := FixtureOutcomeUp()
		if outcome.Adverse(types.MonitorWeb) {
			t.Error("expected non-adverse outcome for web")
		}
		if outcome.Adverse(types.MonitorPing) {
			t.Error("expected non-adverse outcome for ping")
		}
	})

	t.Run("down", func(t *testing.T) {
		outcome := FixtureOutcomeDown()
		if !outcome.Adverse(types.MonitorWeb) {
			t.Error("expected adverse outcome for web")
		}
		if !outcome.Adverse(types.MonitorPort) {
			t.Error("expected adverse outcome for port")
		}
	})
}

func TestFixtureAlert(t *testing.T) {
	alert := FixtureAlert("user-1", "mon-1")
	if alert.UserID != "user-1" {
		t.Errorf("expected user ID 'user-1', got %s", alert.UserID)
	}
	if alert.MonitorID != "mon-1" {
		t.Errorf("expected monitor ID 'mon-1', got %s", alert.MonitorID)
	}
	if alert.MaxTries != types.DefaultAlertMaxTries {
		t.Errorf("expected max tries %d, got %d", types.DefaultAlertMaxTries, alert.MaxTries)
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("Ptr", func(t *testing.T) {
		intPtr := Ptr(42)
		if *intPtr != 42 {
			t.Errorf("expected 42, got %d", *intPtr)
		}

		strPtr := Ptr("hello")
		if *strPtr != "hello" {
			t.Errorf("expected 'hello', got %s", *strPtr)
		}
	})

	t.Run("TimeAgo", func(t *testing.T) {
		past := TimeAgo(5 * time.Minute)
		expected := 5 * time.Minute
		actual := time.Since(past)
		if actual < expected-time.Second || actual > expected+time.Second {
			t.Errorf("expected ~%v ago, got %v ago", expected, actual)
		}
	})

	t.Run("TimeAgoPtr", func(t *testing.T) {
		past := TimeAgoPtr(10 * time.Minute)
		if past == nil {
			t.Error("expected non-nil pointer")
		}
		expected := 10 * time.Minute
		actual := time.Since(*past)
		if actual < expected-time.Second || actual > expected+time.Second {
			t.Errorf("expected ~%v ago, got %v ago", expected, actual)
		}
	})
}
