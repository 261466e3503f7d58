package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// MONITOR AGENTS
// =============================================================================

const agentColumns = `id, type, region, url, enabled, api_key_hash, last_seen_at, created_at`

func scanAgent(row pgx.Row) (*types.MonitorAgent, error) {
	var a types.MonitorAgent
	err := row.Scan(&a.ID, &a.Type, &a.Region, &a.URL, &a.Enabled, &a.APIKeyHash, &a.LastSeenAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAgent registers a new agent endpoint.
func (s *Store) CreateAgent(ctx context.Context, a *types.MonitorAgent) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO monitor_agents (id, type, region, url, enabled, api_key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.Type, a.Region, a.URL, a.Enabled, a.APIKeyHash, a.CreatedAt)
	return err
}

// GetAgent retrieves an agent by ID. Returns (nil, nil) when not found.
func (s *Store) GetAgent(ctx context.Context, id string) (*types.MonitorAgent, error) {
	a, err := scanAgent(s.pool.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM monitor_agents WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// ListAgents returns all registered agents, optionally filtered by type.
func (s *Store) ListAgents(ctx context.Context, agentType types.AgentType) ([]types.MonitorAgent, error) {
	query := `SELECT ` + agentColumns + ` FROM monitor_agents`
	args := []interface{}{}
	if agentType != "" {
		query += ` WHERE type = $1`
		args = append(args, agentType)
	}
	query += ` ORDER BY region, url`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []types.MonitorAgent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// ListDispatchableAgents returns enabled agents of type monitorAgents in
// stable order. This feeds the round-robin pool.
func (s *Store) ListDispatchableAgents(ctx context.Context) ([]types.MonitorAgent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+agentColumns+` FROM monitor_agents
		WHERE type = $1 AND enabled = TRUE
		ORDER BY region, url
	`, types.AgentTypeMonitor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []types.MonitorAgent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// UpdateAgentLastSeen records a heartbeat.
func (s *Store) UpdateAgentLastSeen(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE monitor_agents SET last_seen_at = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent %s not found", id)
	}
	return nil
}

// SetAgentEnabled flips an agent in or out of the dispatch pool.
func (s *Store) SetAgentEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE monitor_agents SET enabled = $2 WHERE id = $1
	`, id, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent %s not found", id)
	}
	return nil
}

// DeleteAgent removes an agent registration.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM monitor_agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent %s not found", id)
	}
	return nil
}
