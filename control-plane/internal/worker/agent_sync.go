package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/config"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// AgentSyncStore defines the storage interface for the agent-pool refresher.
type AgentSyncStore interface {
	// ListDispatchableAgents returns the enabled monitor agents in a stable
	// order.
	ListDispatchableAgents(ctx context.Context) ([]types.MonitorAgent, error)
}

// PoolSink receives refreshed agent snapshots.
type PoolSink interface {
	SetAgents(agents []types.MonitorAgent)
}

// AgentSyncConfig holds configuration for the agent-pool refresher.
type AgentSyncConfig struct {
	// Interval between registry reads.
	Interval time.Duration
}

// DefaultAgentSyncConfig returns the standard refresh cadence.
func DefaultAgentSyncConfig() AgentSyncConfig {
	return AgentSyncConfig{
		Interval: config.AgentPoolRefreshInterval,
	}
}

// AgentSync periodically reloads the enabled-agent registry into the dispatch
// pool. A failed read keeps the previous snapshot; the pool only ever shrinks
// or grows on a successful read or an explicit registry change.
type AgentSync struct {
	store  AgentSyncStore
	pool   PoolSink
	config AgentSyncConfig
	logger *slog.Logger
	stopCh chan struct{}
}

// NewAgentSync creates an agent-pool refresher.
func NewAgentSync(store AgentSyncStore, pool PoolSink, cfg AgentSyncConfig, logger *slog.Logger) *AgentSync {
	return &AgentSync{
		store:  store,
		pool:   pool,
		config: cfg,
		logger: logger.With("component", "agent_sync"),
		stopCh: make(chan struct{}),
	}
}

// SyncNow performs one synchronous refresh. Called at startup before the
// bucket workers begin so the first tick never dispatches into an empty pool.
func (w *AgentSync) SyncNow(ctx context.Context) error {
	agents, err := w.store.ListDispatchableAgents(ctx)
	if err != nil {
		return err
	}
	w.pool.SetAgents(agents)
	return nil
}

// Start begins the refresher in a goroutine.
func (w *AgentSync) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the refresher to stop.
func (w *AgentSync) Stop() {
	close(w.stopCh)
}

func (w *AgentSync) run(ctx context.Context) {
	w.logger.Info("agent sync started", "interval", w.config.Interval)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("agent sync stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info("agent sync stopping (stop signal)")
			return
		case <-ticker.C:
			if err := w.SyncNow(ctx); err != nil {
				w.logger.Error("agent pool refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}
