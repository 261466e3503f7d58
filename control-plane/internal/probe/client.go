// Package probe dispatches checks to monitor agents and normalizes their
// replies into typed outcomes.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vigil-net/uptime-mon/control-plane/internal/config"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// Config holds configuration for the probe client.
type Config struct {
	Timeout   time.Duration // hard per-probe timeout (default: 5s)
	RateLimit int           // outbound probes per second, all workers combined (0 = unlimited)
	Token     string        // shared token presented to agents
}

// Client performs one HTTP exchange per probe. It never retries: failover
// and verification are the caller's decisions, made one layer up.
type Client struct {
	httpClient  *http.Client
	token       string
	rateLimiter *rate.Limiter // nil when unlimited
	logger      *slog.Logger
}

// NewClient creates a new probe client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.ProbeTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		token:       cfg.Token,
		rateLimiter: limiter,
		logger:      logger.With("component", "probe_client"),
	}
}

// Probe asks one agent to check one monitor. Transport errors, non-2xx
// statuses, malformed replies and timeouts all surface as a single error
// kind; a non-nil outcome means the agent answered and was normalized.
func (c *Client) Probe(ctx context.Context, agentURL string, m *types.Monitor) (*types.ProbeOutcome, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	reqBody, err := json.Marshal(types.ProbeRequest{
		URL:   m.URL,
		Port:  m.Port,
		Type:  m.Kind,
		Token: c.token,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal probe request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Debug("dispatching probe", "agent", agentURL, "monitor_id", m.ID, "kind", m.Kind)

	// Response time is what we measured, not what the agent claims.
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("read probe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("agent error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var agentResp types.ProbeResponse
	if err := json.Unmarshal(body, &agentResp); err != nil {
		return nil, fmt.Errorf("unmarshal probe response: %w", err)
	}

	outcome := normalize(&agentResp, m.Kind, elapsed)

	c.logger.Debug("probe complete",
		"agent", agentURL,
		"monitor_id", m.ID,
		"state", outcome.StateFor(m.Kind),
		"response_time_ms", outcome.ResponseTimeMs,
	)

	return outcome, nil
}

// normalize maps a raw agent reply onto the three typed result fields.
// Recognition is by exact string match; anything else, including an absent
// field, becomes the adverse value. Agents only report the field for the
// requested check type, so the other two adverse-default by construction.
func normalize(resp *types.ProbeResponse, kind types.MonitorKind, elapsedMs int64) *types.ProbeOutcome {
	outcome := &types.ProbeOutcome{
		Availability:   types.AvailabilityDown,
		Ping:           types.PingUnreachable,
		Port:           types.PortClosed,
		ResponseTimeMs: elapsedMs,
	}

	if resp.Availability == string(types.AvailabilityUp) {
		outcome.Availability = types.AvailabilityUp
	}
	if resp.Ping == string(types.PingReachable) {
		outcome.Ping = types.PingReachable
	}
	if resp.Port == string(types.PortOpen) {
		outcome.Port = types.PortOpen
	}

	if resp.Data != nil {
		if kind == types.MonitorWeb {
			outcome.Reason = resp.Data.Status
		} else {
			outcome.Reason = resp.Data.Output
		}
	}

	return outcome
}
