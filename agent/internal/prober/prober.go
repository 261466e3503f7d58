// Package prober executes the three probe kinds on behalf of the control
// plane: HTTP availability checks, ICMP reachability via the system ping
// binary, and TCP port dials.
//
// Each probe reports only the field for the requested kind; the control
// plane treats absent fields as adverse, so a web probe never claims
// anything about ping or port state.
package prober

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vigil-net/uptime-mon/agent/internal/config"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// Prober runs probes with per-kind timeouts.
type Prober struct {
	cfg    config.ProbingConfig
	client *http.Client
	logger *slog.Logger
}

// New creates a prober from the probing configuration.
func New(cfg config.ProbingConfig, logger *slog.Logger) *Prober {
	if cfg.PingPath == "" {
		cfg.PingPath = "ping"
	}
	return &Prober{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.WebTimeout,
		},
		logger: logger.With("component", "prober"),
	}
}

// Execute runs the probe a request asks for and returns the wire response.
// Unknown kinds return an error; probe failures do not, they return the
// adverse response for the kind.
func (p *Prober) Execute(ctx context.Context, req types.ProbeRequest) (*types.ProbeResponse, error) {
	switch req.Type {
	case types.MonitorWeb:
		return p.probeWeb(ctx, req.URL), nil
	case types.MonitorPing:
		return p.probePing(ctx, req.URL), nil
	case types.MonitorPort:
		return p.probePort(req.URL, req.Port), nil
	default:
		return nil, fmt.Errorf("unknown probe type: %q", req.Type)
	}
}

// probeWeb GETs the target and reports Up for any status below 400. The
// HTTP status text rides along as data so a Down event can say why.
func (p *Prober) probeWeb(ctx context.Context, target string) *types.ProbeResponse {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &types.ProbeResponse{
			Availability: string(types.AvailabilityDown),
			Data:         &types.ProbeData{Status: err.Error()},
		}
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.logger.Debug("web probe failed", "url", target, "error", err)
		return &types.ProbeResponse{
			Availability: string(types.AvailabilityDown),
			Data:         &types.ProbeData{Status: err.Error()},
		}
	}
	defer resp.Body.Close()

	availability := types.AvailabilityDown
	if resp.StatusCode < 400 {
		availability = types.AvailabilityUp
	}

	return &types.ProbeResponse{
		Availability: string(availability),
		Data:         &types.ProbeData{Status: resp.Status},
	}
}

// probePing shells out to the system ping binary with a single packet. Exit
// code zero means reachable; the first output line is attached as data.
func (p *Prober) probePing(ctx context.Context, target string) *types.ProbeResponse {
	host := hostOf(target)

	waitSecs := int(p.cfg.PingTimeout.Seconds())
	if waitSecs < 1 {
		waitSecs = 1
	}

	cmdCtx, cancel := context.WithTimeout(ctx, p.cfg.PingTimeout+time.Second)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, p.cfg.PingPath, "-c", "1", "-W", strconv.Itoa(waitSecs), host)
	output, err := cmd.CombinedOutput()

	ping := types.PingReachable
	if err != nil {
		p.logger.Debug("ping probe failed", "host", host, "error", err)
		ping = types.PingUnreachable
	}

	return &types.ProbeResponse{
		Ping: string(ping),
		Data: &types.ProbeData{Output: firstLine(string(output))},
	}
}

// probePort dials the target's TCP port and reports Open on success.
func (p *Prober) probePort(target string, port int) *types.ProbeResponse {
	addr := net.JoinHostPort(hostOf(target), strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", addr, p.cfg.PortTimeout)
	if err != nil {
		p.logger.Debug("port probe failed", "addr", addr, "error", err)
		return &types.ProbeResponse{
			Port: string(types.PortClosed),
			Data: &types.ProbeData{Output: err.Error()},
		}
	}
	conn.Close()

	return &types.ProbeResponse{
		Port: string(types.PortOpen),
	}
}

// hostOf strips any URL scheme and path from a target, leaving the bare
// host for ping and dial probes. Monitors store web targets as full URLs
// but ping/port targets are usually bare hostnames already.
func hostOf(target string) string {
	if strings.Contains(target, "://") {
		if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	return target
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
