package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/agentpool"
	"github.com/vigil-net/uptime-mon/control-plane/internal/service"
	"github.com/vigil-net/uptime-mon/control-plane/internal/testutil"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

type dueQuery struct {
	frequency int
	afterID   string
	limit     int
}

// mockSchedulerStore serves monitors in id order, slicing keyset pages the
// way the real query does.
type mockSchedulerStore struct {
	mu       sync.Mutex
	monitors []types.Monitor
	queries  []dueQuery
	err      error
}

func (s *mockSchedulerStore) DueMonitors(ctx context.Context, frequency int, window time.Duration, afterID string, limit int) ([]types.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, dueQuery{frequency, afterID, limit})
	if s.err != nil {
		return nil, s.err
	}

	var page []types.Monitor
	for _, m := range s.monitors {
		if m.ID > afterID {
			page = append(page, m)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

type mockWorkerChecker struct {
	mu          sync.Mutex
	checked     []string
	hadDeadline bool
	check       func(ctx context.Context, m *types.Monitor) (*service.CheckReport, error)
}

func (c *mockWorkerChecker) CheckMonitor(ctx context.Context, m *types.Monitor) (*service.CheckReport, error) {
	c.mu.Lock()
	c.checked = append(c.checked, m.ID)
	if _, ok := ctx.Deadline(); ok {
		c.hadDeadline = true
	}
	c.mu.Unlock()
	if c.check != nil {
		return c.check(ctx, m)
	}
	return &service.CheckReport{Probes: 1, Transition: false}, nil
}

func (c *mockWorkerChecker) checkedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.checked...)
}

type mockTickLocker struct {
	mu      sync.Mutex
	granted bool
	err     error
	calls   int
	bucket  int
	ttl     time.Duration
}

func (l *mockTickLocker) AcquireTickLock(ctx context.Context, bucketMinutes int, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.bucket = bucketMinutes
	l.ttl = ttl
	return l.granted, l.err
}

func dueMonitor(id string, frequency int) types.Monitor {
	return *testutil.FixtureMonitor(func(m *types.Monitor) {
		m.ID = id
		m.Frequency = frequency
	})
}

func smallBucketConfig(pageSize int) BucketWorkerConfig {
	cfg := DefaultBucketWorkerConfig(5)
	cfg.PageSize = pageSize
	return cfg
}

func TestBucketWorkerPagesThroughAllDueMonitors(t *testing.T) {
	store := &mockSchedulerStore{monitors: []types.Monitor{
		dueMonitor("m01", 5), dueMonitor("m02", 5), dueMonitor("m03", 5),
		dueMonitor("m04", 5), dueMonitor("m05", 5),
	}}
	checker := &mockWorkerChecker{}

	w := NewBucketWorker(store, checker, nil, smallBucketConfig(2), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if got := len(checker.checkedIDs()); got != 5 {
		t.Fatalf("checked %d monitors, expected all 5", got)
	}

	// Three full-or-partial pages: [m01 m02], [m03 m04], [m05].
	if len(store.queries) != 3 {
		t.Fatalf("queries = %d, expected 3 keyset pages", len(store.queries))
	}
	wantAfter := []string{"", "m02", "m04"}
	for i, q := range store.queries {
		if q.afterID != wantAfter[i] {
			t.Errorf("page %d afterID = %q, expected %q", i, q.afterID, wantAfter[i])
		}
		if q.frequency != 5 || q.limit != 2 {
			t.Errorf("page %d query = %+v", i, q)
		}
	}
}

func TestBucketWorkerShortFinalPageStopsPaging(t *testing.T) {
	store := &mockSchedulerStore{monitors: []types.Monitor{
		dueMonitor("m01", 5),
	}}
	checker := &mockWorkerChecker{}

	w := NewBucketWorker(store, checker, nil, smallBucketConfig(100), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if len(store.queries) != 1 {
		t.Errorf("queries = %d, a short page must end the tick", len(store.queries))
	}
}

func TestBucketWorkerLockDeniedSkipsTick(t *testing.T) {
	store := &mockSchedulerStore{monitors: []types.Monitor{dueMonitor("m01", 5)}}
	checker := &mockWorkerChecker{}
	locks := &mockTickLocker{granted: false}

	w := NewBucketWorker(store, checker, locks, smallBucketConfig(100), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if locks.calls != 1 {
		t.Fatalf("lock calls = %d", locks.calls)
	}
	if locks.bucket != 5 {
		t.Errorf("lock bucket = %d", locks.bucket)
	}
	if len(store.queries) != 0 || len(checker.checkedIDs()) != 0 {
		t.Error("denied tick must not touch the store or checker")
	}
}

func TestBucketWorkerLockErrorRunsUnlocked(t *testing.T) {
	store := &mockSchedulerStore{monitors: []types.Monitor{dueMonitor("m01", 5)}}
	checker := &mockWorkerChecker{}
	locks := &mockTickLocker{err: errors.New("redis down")}

	w := NewBucketWorker(store, checker, locks, smallBucketConfig(100), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if len(checker.checkedIDs()) != 1 {
		t.Error("a lock backend failure must not stall the tick")
	}
}

func TestBucketWorkerLockTTLInsidePeriod(t *testing.T) {
	store := &mockSchedulerStore{}
	locks := &mockTickLocker{granted: true}

	w := NewBucketWorker(store, &mockWorkerChecker{}, locks, smallBucketConfig(100), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if locks.ttl <= 0 || locks.ttl >= 5*time.Minute {
		t.Errorf("lock ttl = %v, must expire inside the bucket period", locks.ttl)
	}
}

func TestBucketWorkerAppliesPerCheckDeadline(t *testing.T) {
	store := &mockSchedulerStore{monitors: []types.Monitor{dueMonitor("m01", 5)}}
	checker := &mockWorkerChecker{}

	w := NewBucketWorker(store, checker, nil, smallBucketConfig(100), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if !checker.hadDeadline {
		t.Error("each check must carry its own deadline")
	}
}

func TestBucketWorkerStoreErrorEndsTick(t *testing.T) {
	store := &mockSchedulerStore{err: errors.New("connection refused")}
	checker := &mockWorkerChecker{}

	w := NewBucketWorker(store, checker, nil, smallBucketConfig(100), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if len(checker.checkedIDs()) != 0 {
		t.Error("a failed page load must end the tick without dispatching")
	}
}

func TestBucketWorkerToleratesSkipsAndErrors(t *testing.T) {
	store := &mockSchedulerStore{monitors: []types.Monitor{
		dueMonitor("m01", 5), dueMonitor("m02", 5), dueMonitor("m03", 5),
	}}
	checker := &mockWorkerChecker{check: func(ctx context.Context, m *types.Monitor) (*service.CheckReport, error) {
		switch m.ID {
		case "m01":
			return &service.CheckReport{Skipped: true}, fmt.Errorf("dispatch: %w", agentpool.ErrNoAgents)
		case "m02":
			return &service.CheckReport{Skipped: true}, errors.New("probe timeout")
		default:
			return &service.CheckReport{Probes: 1, Transition: true, Adverse: true, Alerted: true}, nil
		}
	}}

	w := NewBucketWorker(store, checker, nil, smallBucketConfig(100), testutil.NewTestLogger())
	w.runOnce(context.Background())

	if got := len(checker.checkedIDs()); got != 3 {
		t.Errorf("checked %d, one bad monitor must not stop the page", got)
	}
}

func TestBucketWorkerStartStop(t *testing.T) {
	store := &mockSchedulerStore{}
	w := NewBucketWorker(store, &mockWorkerChecker{}, nil, smallBucketConfig(100), testutil.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// The initial tick runs immediately; give it a moment, then stop.
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	store.mu.Lock()
	queries := len(store.queries)
	store.mu.Unlock()
	if queries == 0 {
		t.Error("expected an immediate first tick on start")
	}
}
