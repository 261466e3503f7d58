// Package service contains the business logic for the control plane: the
// per-monitor check sequence, state-change detection, alert throttling, and
// the read-side aggregations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vigil-net/uptime-mon/control-plane/internal/auth"
	"github.com/vigil-net/uptime-mon/control-plane/internal/store"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// Service provides business logic operations for the API surface.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService creates a new service.
func NewService(store *store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Store returns the underlying store for direct access (used by middleware).
func (s *Service) Store() *store.Store {
	return s.store
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

// CreateUser creates the minimal account record monitors hang off.
func (s *Service) CreateUser(ctx context.Context, u *types.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	s.logger.Info("user created", "id", u.ID, "email", u.Email)
	return nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*types.User, error) {
	return s.store.GetUser(ctx, id)
}

// =============================================================================
// MONITOR OPERATIONS
// =============================================================================

// CreateMonitor validates, defaults and persists a new monitor. The monitor
// becomes due on the next tick of its bucket.
func (s *Service) CreateMonitor(ctx context.Context, m *types.Monitor) error {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateMonitor(ctx, m); err != nil {
		return fmt.Errorf("creating monitor: %w", err)
	}
	s.logger.Info("monitor created",
		"id", m.ID, "kind", m.Kind, "url", m.URL, "frequency", m.Frequency)
	return nil
}

// GetMonitor retrieves a monitor by ID.
func (s *Service) GetMonitor(ctx context.Context, id string) (*types.Monitor, error) {
	return s.store.GetMonitor(ctx, id)
}

// ListMonitors returns a user's monitors.
func (s *Service) ListMonitors(ctx context.Context, userID string) ([]types.Monitor, error) {
	return s.store.ListMonitorsByUser(ctx, userID)
}

// UpdateMonitor rewrites the editable fields of an existing monitor. A kind
// change is allowed but resets transition semantics: the next check compares
// against the new kind's field of the last event, so it usually emits one
// fresh transition.
func (s *Service) UpdateMonitor(ctx context.Context, m *types.Monitor) error {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateMonitor(ctx, m); err != nil {
		return fmt.Errorf("updating monitor: %w", err)
	}
	s.logger.Info("monitor updated", "id", m.ID)
	return nil
}

// DeleteMonitor removes a monitor with its events, alerts and samples.
func (s *Service) DeleteMonitor(ctx context.Context, id string) error {
	if err := s.store.DeleteMonitor(ctx, id); err != nil {
		return err
	}
	s.logger.Info("monitor deleted", "id", id)
	return nil
}

// SetMonitorPaused pauses or resumes a monitor.
func (s *Service) SetMonitorPaused(ctx context.Context, id string, paused bool) error {
	if err := s.store.SetMonitorPaused(ctx, id, paused); err != nil {
		return err
	}
	s.logger.Info("monitor pause flag set", "id", id, "paused", paused)
	return nil
}

// =============================================================================
// AGENT REGISTRY OPERATIONS
// =============================================================================

// RegisterAgentResult carries the one-time plaintext API key back to the
// operator along with the stored registration.
type RegisterAgentResult struct {
	Agent  *types.MonitorAgent
	APIKey string
}

// RegisterAgent registers a probe agent and mints its API key. The plaintext
// key is returned exactly once; only the bcrypt hash is stored.
func (s *Service) RegisterAgent(ctx context.Context, a *types.MonitorAgent) (*RegisterAgentResult, error) {
	if a.Type == "" {
		a.Type = types.AgentTypeMonitor
	}
	a.Enabled = true
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	key, hash, err := auth.GenerateAgentKey(a.ID)
	if err != nil {
		return nil, fmt.Errorf("minting agent key: %w", err)
	}
	a.APIKeyHash = hash

	if err := s.store.CreateAgent(ctx, a); err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}

	s.logger.Info("agent registered", "id", a.ID, "region", a.Region, "url", a.URL)
	return &RegisterAgentResult{Agent: a, APIKey: key}, nil
}

// ListAgents returns all registered agents.
func (s *Service) ListAgents(ctx context.Context) ([]types.MonitorAgent, error) {
	return s.store.ListAgents(ctx, "")
}

// GetAgent retrieves an agent by ID.
func (s *Service) GetAgent(ctx context.Context, id string) (*types.MonitorAgent, error) {
	return s.store.GetAgent(ctx, id)
}

// DeleteAgent removes an agent registration. The dispatch pool drops it on
// its next refresh.
func (s *Service) DeleteAgent(ctx context.Context, id string) error {
	if err := s.store.DeleteAgent(ctx, id); err != nil {
		return err
	}
	s.logger.Info("agent deleted", "id", id)
	return nil
}

// ProcessHeartbeat records an agent's liveness ping.
func (s *Service) ProcessHeartbeat(ctx context.Context, agentID string) error {
	return s.store.UpdateAgentLastSeen(ctx, agentID, time.Now().UTC())
}

// =============================================================================
// ALERT QUEUE (read-only; delivery workers own the rest)
// =============================================================================

// ListAlerts returns a page of the alert queue.
func (s *Service) ListAlerts(ctx context.Context, filter types.AlertFilter) (*types.AlertPage, error) {
	return s.store.ListAlerts(ctx, filter)
}
