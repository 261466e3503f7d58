package service

import (
	"testing"

	"github.com/vigil-net/uptime-mon/control-plane/internal/testutil"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

func eventWith(kind types.MonitorKind, availability types.Availability, ping types.PingState, port types.PortState) *types.UptimeEvent {
	e := testutil.FixtureEvent("m1")
	e.Kind = kind
	e.Availability = availability
	e.Ping = ping
	e.Port = port
	return e
}

func TestShouldAppendTruthTable(t *testing.T) {
	up := eventWith(types.MonitorWeb, types.AvailabilityUp, types.PingReachable, types.PortOpen)
	down := eventWith(types.MonitorWeb, types.AvailabilityDown, types.PingUnreachable, types.PortClosed)

	tests := []struct {
		name      string
		kind      types.MonitorKind
		candidate *types.UptimeEvent
		last      *types.UptimeEvent
		want      bool
	}{
		{"first event always appends (up)", types.MonitorWeb, up, nil, true},
		{"first event always appends (down)", types.MonitorWeb, down, nil, true},
		{"up to down appends", types.MonitorWeb, down, up, true},
		{"down to up appends", types.MonitorWeb, up, down, true},
		{"up to up does not append", types.MonitorWeb, up, up, false},
		{"down to down does not append", types.MonitorWeb, down, down, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldAppend(tt.kind, tt.candidate, tt.last); got != tt.want {
				t.Errorf("ShouldAppend = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestShouldAppendUsesAuthoritativeFieldOnly(t *testing.T) {
	// Same ping state, different availability: a ping monitor must not see a
	// transition, a web monitor must.
	last := eventWith(types.MonitorPing, types.AvailabilityUp, types.PingReachable, types.PortClosed)
	candidate := eventWith(types.MonitorPing, types.AvailabilityDown, types.PingReachable, types.PortClosed)

	if ShouldAppend(types.MonitorPing, candidate, last) {
		t.Error("ping monitor appended on availability change")
	}
	if !ShouldAppend(types.MonitorWeb, candidate, last) {
		t.Error("web monitor ignored availability change")
	}
}

func TestShouldAppendPortKind(t *testing.T) {
	last := eventWith(types.MonitorPort, types.AvailabilityDown, types.PingUnreachable, types.PortOpen)
	closed := eventWith(types.MonitorPort, types.AvailabilityDown, types.PingUnreachable, types.PortClosed)

	if !ShouldAppend(types.MonitorPort, closed, last) {
		t.Error("port close not detected as transition")
	}
	if ShouldAppend(types.MonitorPort, last, last) {
		t.Error("steady open state appended")
	}
}

func TestShouldAppendAfterKindChange(t *testing.T) {
	// History was recorded as a web monitor; the monitor is now ping. The
	// comparison runs against the ping field of the old event, so a matching
	// ping value reads as no transition and a differing one as a transition.
	last := eventWith(types.MonitorWeb, types.AvailabilityUp, types.PingUnreachable, types.PortClosed)
	candidate := eventWith(types.MonitorPing, types.AvailabilityDown, types.PingReachable, types.PortClosed)

	if !ShouldAppend(types.MonitorPing, candidate, last) {
		t.Error("expected transition after kind change with differing ping state")
	}
}
