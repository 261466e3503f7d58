package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vigil-net/uptime-mon/control-plane/internal/testutil"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

type mockAgentRegistry struct {
	mu     sync.Mutex
	agents []types.MonitorAgent
	err    error
}

func (r *mockAgentRegistry) ListDispatchableAgents(ctx context.Context) ([]types.MonitorAgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents, r.err
}

type recordingPool struct {
	mu        sync.Mutex
	snapshots [][]types.MonitorAgent
}

func (p *recordingPool) SetAgents(agents []types.MonitorAgent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, agents)
}

func TestAgentSyncNowLoadsPool(t *testing.T) {
	registry := &mockAgentRegistry{agents: []types.MonitorAgent{
		*testutil.FixtureAgent(), *testutil.FixtureAgent(),
	}}
	pool := &recordingPool{}

	w := NewAgentSync(registry, pool, DefaultAgentSyncConfig(), testutil.NewTestLogger())
	if err := w.SyncNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pool.snapshots) != 1 || len(pool.snapshots[0]) != 2 {
		t.Errorf("snapshots = %v", pool.snapshots)
	}
}

func TestAgentSyncFailedReadKeepsPreviousSnapshot(t *testing.T) {
	registry := &mockAgentRegistry{err: errors.New("connection refused")}
	pool := &recordingPool{}

	w := NewAgentSync(registry, pool, DefaultAgentSyncConfig(), testutil.NewTestLogger())
	if err := w.SyncNow(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if len(pool.snapshots) != 0 {
		t.Error("a failed read must not replace the pool snapshot")
	}
}

func TestAgentSyncEmptyRegistryEmptiesPool(t *testing.T) {
	registry := &mockAgentRegistry{} // no agents, no error
	pool := &recordingPool{}

	w := NewAgentSync(registry, pool, DefaultAgentSyncConfig(), testutil.NewTestLogger())
	if err := w.SyncNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An intentionally emptied registry does propagate; only read failures
	// preserve the old snapshot.
	if len(pool.snapshots) != 1 || len(pool.snapshots[0]) != 0 {
		t.Errorf("snapshots = %v", pool.snapshots)
	}
}
