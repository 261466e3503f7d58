package agentpool

import (
	"errors"
	"sync"
	"testing"

	"github.com/vigil-net/uptime-mon/control-plane/internal/testutil"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

func poolWith(urls ...string) *Pool {
	agents := make([]types.MonitorAgent, len(urls))
	for i, u := range urls {
		agents[i] = *testutil.FixtureAgent(func(a *types.MonitorAgent) {
			a.URL = u
		})
	}
	p := New(testutil.NewTestLogger())
	p.SetAgents(agents)
	return p
}

func TestNextRotates(t *testing.T) {
	p := poolWith("https://a.example.com", "https://b.example.com", "https://c.example.com")

	want := []string{
		"https://a.example.com", "https://b.example.com", "https://c.example.com",
		"https://a.example.com", "https://b.example.com", "https://c.example.com",
	}
	for i, w := range want {
		agent, err := p.Next()
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if agent.URL != w {
			t.Errorf("call %d: expected %s, got %s", i, w, agent.URL)
		}
	}
}

func TestNextEmptyPool(t *testing.T) {
	p := New(testutil.NewTestLogger())

	if _, err := p.Next(); !errors.Is(err, ErrNoAgents) {
		t.Errorf("expected ErrNoAgents, got %v", err)
	}
	if _, err := p.Other("https://a.example.com"); !errors.Is(err, ErrNoAgents) {
		t.Errorf("expected ErrNoAgents from Other, got %v", err)
	}
}

func TestNextFairUnderConcurrency(t *testing.T) {
	p := poolWith("https://a.example.com", "https://b.example.com", "https://c.example.com")

	const callsPerAgent = 100
	results := make(chan string, 3*callsPerAgent)

	var wg sync.WaitGroup
	for i := 0; i < 3*callsPerAgent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agent, err := p.Next()
			if err != nil {
				t.Error(err)
				return
			}
			results <- agent.URL
		}()
	}
	wg.Wait()
	close(results)

	counts := make(map[string]int)
	for url := range results {
		counts[url] += 1
	}

	// The atomic index makes the distribution exact, not just approximate.
	for url, n := range counts {
		if n != callsPerAgent {
			t.Errorf("agent %s served %d calls, expected %d", url, n, callsPerAgent)
		}
	}
}

func TestOtherSkipsGivenURL(t *testing.T) {
	p := poolWith("https://a.example.com", "https://b.example.com", "https://c.example.com")

	agent, err := p.Other("https://a.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.URL != "https://b.example.com" {
		t.Errorf("expected first non-matching agent b, got %s", agent.URL)
	}

	agent, err = p.Other("https://b.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.URL != "https://a.example.com" {
		t.Errorf("expected stable-order first agent a, got %s", agent.URL)
	}
}

func TestSingleAgentHasNoAlternate(t *testing.T) {
	p := poolWith("https://only.example.com")

	// The one agent keeps serving Next.
	for i := 0; i < 3; i++ {
		agent, err := p.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if agent.URL != "https://only.example.com" {
			t.Errorf("expected the single agent, got %s", agent.URL)
		}
	}

	// But there is no second opinion to be had.
	if _, err := p.Other("https://only.example.com"); !errors.Is(err, ErrNoAgents) {
		t.Errorf("expected ErrNoAgents, got %v", err)
	}
}

func TestSetAgentsMidRotation(t *testing.T) {
	p := poolWith("https://a.example.com", "https://b.example.com", "https://c.example.com")

	for i := 0; i < 4; i++ {
		if _, err := p.Next(); err != nil {
			t.Fatal(err)
		}
	}

	p.SetAgents([]types.MonitorAgent{
		*testutil.FixtureAgent(func(a *types.MonitorAgent) { a.URL = "https://x.example.com" }),
		*testutil.FixtureAgent(func(a *types.MonitorAgent) { a.URL = "https://y.example.com" }),
	})

	if p.Len() != 2 {
		t.Fatalf("expected pool of 2, got %d", p.Len())
	}

	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		agent, err := p.Next()
		if err != nil {
			t.Fatalf("unexpected error after swap: %v", err)
		}
		seen[agent.URL] = true
	}
	if !seen["https://x.example.com"] || !seen["https://y.example.com"] {
		t.Errorf("expected rotation over the new snapshot, saw %v", seen)
	}

	p.SetAgents(nil)
	if _, err := p.Next(); !errors.Is(err, ErrNoAgents) {
		t.Errorf("expected ErrNoAgents after emptying pool, got %v", err)
	}
}
