// Package agentpool maintains the in-memory dispatch pool of enabled monitor
// agents and spreads probe load across them round-robin.
package agentpool

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// ErrNoAgents is returned when the pool has no agent to offer. Callers skip
// the monitor for the tick; they must not treat this as a probe failure.
var ErrNoAgents = errors.New("no monitor agents available")

// Pool holds an ordered snapshot of dispatchable agents.
//
// The rotation index is shared by all workers and advances atomically on
// every Next, so concurrent pages interleave across agents instead of
// hammering the same one. The index survives snapshot swaps; modulo over the
// current length keeps it valid at any size.
type Pool struct {
	mu     sync.RWMutex
	agents []types.MonitorAgent

	next atomic.Uint64

	logger *slog.Logger
}

// New creates an empty pool.
func New(logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		logger: logger.With("component", "agent_pool"),
	}
}

// SetAgents replaces the pool snapshot. The slice is copied; callers may
// reuse theirs.
func (p *Pool) SetAgents(agents []types.MonitorAgent) {
	snapshot := make([]types.MonitorAgent, len(agents))
	copy(snapshot, agents)

	p.mu.Lock()
	p.agents = snapshot
	p.mu.Unlock()

	p.logger.Info("agent pool updated", "count", len(snapshot))
}

// Next returns the next agent in rotation.
func (p *Pool) Next() (types.MonitorAgent, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.agents) == 0 {
		return types.MonitorAgent{}, ErrNoAgents
	}

	idx := p.next.Add(1) - 1
	return p.agents[idx%uint64(len(p.agents))], nil
}

// Other returns the first agent, in snapshot order, whose URL differs from
// exceptURL. Used for failover and verification so the second opinion never
// comes from the agent that produced the first.
func (p *Pool) Other(exceptURL string) (types.MonitorAgent, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, a := range p.agents {
		if a.URL != exceptURL {
			return a, nil
		}
	}
	return types.MonitorAgent{}, ErrNoAgents
}

// Len returns the number of agents in the current snapshot.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.agents)
}
