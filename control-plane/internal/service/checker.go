package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/agentpool"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// MONITOR CHECKER
// =============================================================================

// CheckerStore is the subset of the store one check writes through.
type CheckerStore interface {
	// LatestEvent returns the monitor's most recent event, (nil, nil) when
	// none exists yet.
	LatestEvent(ctx context.Context, monitorID string) (*types.UptimeEvent, error)

	// InsertEvent appends a transition event.
	InsertEvent(ctx context.Context, e *types.UptimeEvent) error

	// SetEventEndTime closes the previous event's interval.
	SetEventEndTime(ctx context.Context, eventID string, endTime time.Time) error

	// InsertAlert appends an intent-to-notify record.
	InsertAlert(ctx context.Context, a *types.Alert) error

	// SetLastAlertSent records the throttle timestamp on the monitor.
	SetLastAlertSent(ctx context.Context, id string, at time.Time) error

	// TouchMonitor bumps updated_at, releasing the monitor to its next tick.
	TouchMonitor(ctx context.Context, id string) error
}

// Prober dispatches one check to one agent.
type Prober interface {
	Probe(ctx context.Context, agentURL string, m *types.Monitor) (*types.ProbeOutcome, error)
}

// AgentPool selects agents for dispatch and second opinions.
type AgentPool interface {
	Next() (types.MonitorAgent, error)
	Other(exceptURL string) (types.MonitorAgent, error)
}

// SampleRecorder accepts per-check telemetry. May be backed by the Redis
// buffer or by direct inserts; the checker does not care.
type SampleRecorder interface {
	RecordSample(ctx context.Context, sample types.ProbeSample) error
}

// CheckReport summarizes one completed (or skipped) check for the scheduler's
// cycle counters.
type CheckReport struct {
	// Probes is how many agent calls were made. Never exceeds two: a
	// primary plus either one failover retry or one verification.
	Probes int

	// Transition is true when a new event was appended.
	Transition bool

	// Adverse is true when the recorded result was negative for the
	// monitor's kind.
	Adverse bool

	// Alerted is true when an alert was enqueued.
	Alerted bool

	// Skipped is true when the check aborted without producing a result.
	// A skipped monitor keeps its updated_at and is retried next tick.
	Skipped bool
}

// Checker runs the per-monitor probe sequence: pick an agent, probe, fail
// over once on transport error, verify adverse results through a second
// agent, persist the transition, throttle the alert, release the monitor.
type Checker struct {
	store   CheckerStore
	pool    AgentPool
	prober  Prober
	samples SampleRecorder // nil disables telemetry
	logger  *slog.Logger
}

// NewChecker creates a checker over the given collaborators.
func NewChecker(store CheckerStore, pool AgentPool, prober Prober, samples SampleRecorder, logger *slog.Logger) *Checker {
	return &Checker{
		store:   store,
		pool:    pool,
		prober:  prober,
		samples: samples,
		logger:  logger.With("component", "checker"),
	}
}

// CheckMonitor performs one check of one monitor. The caller guarantees that
// no other check of the same monitor runs concurrently (the scheduler's due
// predicate plus the updated_at bump enforce this).
//
// Error semantics: a returned error always accompanies Skipped=true and means
// the monitor was left untouched for this tick. Persistence failures during
// the write phase are logged, not returned, and the monitor is still
// released.
func (c *Checker) CheckMonitor(ctx context.Context, m *types.Monitor) (*CheckReport, error) {
	report := &CheckReport{}

	if m.IsPaused {
		// The scheduler's query excludes paused monitors; this guards the
		// direct-call path.
		report.Skipped = true
		return report, nil
	}

	// Failing open to "no prior event" would re-emit a first event on every
	// tick, so a read failure skips the whole check instead.
	last, err := c.store.LatestEvent(ctx, m.ID)
	if err != nil {
		report.Skipped = true
		return report, fmt.Errorf("loading latest event: %w", err)
	}

	primary, err := c.pool.Next()
	if err != nil {
		report.Skipped = true
		return report, err
	}

	outcome, err := c.prober.Probe(ctx, primary.URL, m)
	report.Probes++
	confirmedBy := primary.URL
	failedOver := false

	if err != nil {
		alt, altErr := c.pool.Other(primary.URL)
		if altErr != nil {
			report.Skipped = true
			return report, fmt.Errorf("probe via %s failed with no alternate: %w", primary.URL, err)
		}

		outcome, err = c.prober.Probe(ctx, alt.URL, m)
		report.Probes++
		if err != nil {
			report.Skipped = true
			return report, fmt.Errorf("probes via %s and %s both failed: %w", primary.URL, alt.URL, err)
		}
		confirmedBy = alt.URL
		failedOver = true
	}

	now := time.Now().UTC()
	candidate := &types.UptimeEvent{
		MonitorID:        m.ID,
		UserID:           m.UserID,
		Kind:             m.Kind,
		Availability:     outcome.Availability,
		Ping:             outcome.Ping,
		Port:             outcome.Port,
		ResponseTimeMs:   outcome.ResponseTimeMs,
		ConfirmedByAgent: confirmedBy,
		Reason:           outcome.Reason,
		Timestamp:        now,
	}

	// Adverse results get a second opinion, unless the result already came
	// from the failover alternate: one check never issues a third probe. The
	// verifier overwrites availability only; a verifier error leaves the
	// candidate standing.
	if outcome.Adverse(m.Kind) && !failedOver {
		if alt, altErr := c.pool.Other(confirmedBy); altErr == nil {
			verdict, verr := c.prober.Probe(ctx, alt.URL, m)
			report.Probes++
			if verr == nil {
				candidate.Availability = verdict.Availability
				candidate.ConfirmedByAgent = alt.URL
			} else {
				c.logger.Debug("verification probe failed, candidate stands",
					"monitor_id", m.ID, "verifier", alt.URL, "error", verr)
			}
		}
	}

	report.Adverse = !candidate.Positive()

	// A cancelled check must not emit a partial write pair.
	if ctx.Err() != nil {
		report.Skipped = true
		return report, fmt.Errorf("check cancelled before write phase: %w", ctx.Err())
	}

	if ShouldAppend(m.Kind, candidate, last) {
		// Close the previous interval first, then append; a crash between
		// the two leaves a stale null end_time, which readers tolerate.
		if last != nil {
			if err := c.store.SetEventEndTime(ctx, last.ID, candidate.Timestamp); err != nil {
				c.logger.Error("failed to close previous event",
					"monitor_id", m.ID, "event_id", last.ID, "error", err)
			}
		}
		if err := c.store.InsertEvent(ctx, candidate); err != nil {
			c.logger.Error("failed to append event", "monitor_id", m.ID, "error", err)
		} else {
			report.Transition = true
			c.logger.Info("state transition",
				"monitor_id", m.ID,
				"kind", m.Kind,
				"state", candidate.StateFor(m.Kind),
				"confirmed_by", candidate.ConfirmedByAgent,
			)
		}
	}

	if report.Adverse {
		report.Alerted = c.emitAlert(ctx, m, now)
	}

	if c.samples != nil {
		sample := types.ProbeSample{
			MonitorID:      m.ID,
			ObservedAt:     now,
			Kind:           m.Kind,
			Adverse:        report.Adverse,
			ResponseTimeMs: outcome.ResponseTimeMs,
			AgentURL:       candidate.ConfirmedByAgent,
		}
		if err := c.samples.RecordSample(ctx, sample); err != nil {
			c.logger.Warn("failed to record probe sample", "monitor_id", m.ID, "error", err)
		}
	}

	// Release the monitor unconditionally once a result exists, even when
	// the event or alert writes failed; otherwise a persistently failing
	// write would pin the monitor to every tick.
	if err := c.store.TouchMonitor(ctx, m.ID); err != nil {
		c.logger.Error("failed to bump monitor updated_at", "monitor_id", m.ID, "error", err)
	}

	return report, nil
}

// emitAlert applies the throttle and, when allowed, enqueues an alert and
// stamps the monitor. Reports whether an alert was enqueued.
func (c *Checker) emitAlert(ctx context.Context, m *types.Monitor, now time.Time) bool {
	if m.UserID == "" {
		// Nobody to notify.
		return false
	}
	if !ShouldAlert(m, now) {
		return false
	}

	alert := &types.Alert{
		UserID:    m.UserID,
		MonitorID: m.ID,
		URL:       m.URL,
		MaxTries:  types.DefaultAlertMaxTries,
		CreatedAt: now,
	}
	if err := c.store.InsertAlert(ctx, alert); err != nil {
		c.logger.Error("failed to enqueue alert", "monitor_id", m.ID, "error", err)
	}

	// Stamp even when the insert failed, so the next tick stays throttled
	// instead of retrying the queue every cadence.
	if err := c.store.SetLastAlertSent(ctx, m.ID, now); err != nil {
		c.logger.Error("failed to stamp last alert time", "monitor_id", m.ID, "error", err)
	}
	m.LastAlertSentAt = &now

	c.logger.Info("alert enqueued", "monitor_id", m.ID, "user_id", m.UserID, "url", m.URL)
	return true
}

// IsNoAgents reports whether a check failed because the dispatch pool is
// empty. The scheduler logs this once per tick instead of per monitor.
func IsNoAgents(err error) bool {
	return errors.Is(err, agentpool.ErrNoAgents)
}
