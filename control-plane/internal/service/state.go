package service

import (
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// STATE-CHANGE DETECTION
// =============================================================================
//
// The event log records transitions, not observations. A check that confirms
// the previous state writes nothing; a check that contradicts it appends one
// event and closes the previous event's interval.

// ShouldAppend reports whether a candidate event represents a state change
// for the monitor's kind. Only the authoritative field is compared; the two
// non-authoritative fields are adverse-defaulted noise and must not trigger
// appends. With no prior event the last state is the Unknown sentinel, so the
// first check always appends.
func ShouldAppend(kind types.MonitorKind, candidate, last *types.UptimeEvent) bool {
	lastState := types.StateUnknown
	if last != nil {
		lastState = last.StateFor(kind)
	}
	return candidate.StateFor(kind) != lastState
}
