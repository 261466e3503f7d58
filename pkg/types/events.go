// Package types - uptime events and the agent probe wire contract.
package types

import "time"

// =============================================================================
// RESULT ENUMS
// =============================================================================

// Availability is the HTTP reachability result of a probe.
type Availability string

const (
	AvailabilityUp   Availability = "Up"
	AvailabilityDown Availability = "Down"
)

// PingState is the ICMP reachability result of a probe.
type PingState string

const (
	PingReachable   PingState = "Reachable"
	PingUnreachable PingState = "Unreachable"
)

// PortState is the TCP connect result of a probe.
type PortState string

const (
	PortOpen   PortState = "Open"
	PortClosed PortState = "Closed"
)

// StateUnknown is the sentinel authoritative value for a monitor with no
// recorded event yet. The first observed result always differs from it, so
// the first check after creation emits an event.
const StateUnknown = "Unknown"

// =============================================================================
// UPTIME EVENT
// =============================================================================

// UptimeEvent is one append-only record per observed state transition of a
// monitor. All three result fields are always populated; the one matching
// the monitor's kind is authoritative, the others are normalized from the
// agent response as best available (adverse when absent).
type UptimeEvent struct {
	ID        string      `json:"id"`
	MonitorID string      `json:"monitor_id"`
	UserID    string      `json:"user_id"`
	Kind      MonitorKind `json:"kind"`

	Availability Availability `json:"availability"`
	Ping         PingState    `json:"ping"`
	Port         PortState    `json:"port"`

	// ResponseTimeMs is wall-clock milliseconds measured by the dispatcher
	// around the probe call, not by the agent.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// ConfirmedByAgent is the URL of the agent whose response was ultimately
	// recorded: the verifier if verification ran, else the original.
	ConfirmedByAgent string `json:"confirmed_by_agent"`

	// Reason is free-form context from the agent (HTTP status text for web,
	// probe output for ping/port).
	Reason string `json:"reason,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// EndTime is set exactly once, by the next event for the same monitor:
	// that event's Timestamp closes this interval. Null while latest.
	EndTime *time.Time `json:"end_time,omitempty"`
}

// StateFor returns the event's authoritative value for the given kind.
func (e *UptimeEvent) StateFor(kind MonitorKind) string {
	switch kind {
	case MonitorPing:
		return string(e.Ping)
	case MonitorPort:
		return string(e.Port)
	default:
		return string(e.Availability)
	}
}

// Positive reports whether the event's authoritative value for its own kind
// is the non-adverse one.
func (e *UptimeEvent) Positive() bool {
	switch e.Kind {
	case MonitorPing:
		return e.Ping == PingReachable
	case MonitorPort:
		return e.Port == PortOpen
	default:
		return e.Availability == AvailabilityUp
	}
}

// =============================================================================
// AGENT PROBE WIRE CONTRACT
// =============================================================================

// ProbeRequest is the JSON body POSTed to a monitor agent.
type ProbeRequest struct {
	URL   string      `json:"url"`
	Port  int         `json:"port"`
	Type  MonitorKind `json:"type"`
	Token string      `json:"token"`
}

// ProbeData carries optional context an agent attaches to its response.
type ProbeData struct {
	Status string `json:"status,omitempty"`
	Output string `json:"output,omitempty"`
}

// ProbeResponse is the raw agent reply. All fields are optional; absent
// fields normalize to the adverse value. Values are compared by exact
// string match ("Up", "Reachable", "Open") during normalization.
type ProbeResponse struct {
	Availability string     `json:"availability,omitempty"`
	Ping         string     `json:"ping,omitempty"`
	Port         string     `json:"port,omitempty"`
	Data         *ProbeData `json:"data,omitempty"`
}

// ProbeOutcome is a normalized probe result as produced by the probe client.
type ProbeOutcome struct {
	Availability Availability `json:"availability"`
	Ping         PingState    `json:"ping"`
	Port         PortState    `json:"port"`

	// Reason is opportunistically copied from the agent response: HTTP
	// status for web probes, command output otherwise.
	Reason string `json:"reason,omitempty"`

	// ResponseTimeMs is measured by the client between send and receive.
	ResponseTimeMs int64 `json:"response_time_ms"`
}

// StateFor returns the outcome's authoritative value for the given kind.
func (o ProbeOutcome) StateFor(kind MonitorKind) string {
	switch kind {
	case MonitorPing:
		return string(o.Ping)
	case MonitorPort:
		return string(o.Port)
	default:
		return string(o.Availability)
	}
}

// Adverse reports whether the outcome's authoritative value for the given
// kind is the negative one (Down, Unreachable or Closed).
func (o ProbeOutcome) Adverse(kind MonitorKind) bool {
	switch kind {
	case MonitorPing:
		return o.Ping != PingReachable
	case MonitorPort:
		return o.Port != PortOpen
	default:
		return o.Availability != AvailabilityUp
	}
}

// =============================================================================
// PROBE SAMPLE
// =============================================================================

// ProbeSample is one telemetry row per completed check, regardless of
// whether the check produced a state transition. Samples feed response-time
// history; the pipeline's correctness never reads them.
type ProbeSample struct {
	MonitorID      string      `json:"monitor_id"`
	ObservedAt     time.Time   `json:"observed_at"`
	Kind           MonitorKind `json:"kind"`
	Adverse        bool        `json:"adverse"`
	ResponseTimeMs int64       `json:"response_time_ms"`
	AgentURL       string      `json:"agent_url"`
}
