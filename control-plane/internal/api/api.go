// Package api provides HTTP handlers for the control plane.
//
// # Endpoints
//
// Health:
//   - GET  /api/v1/health - Liveness plus database ping
//   - GET  /api/v1/infrastructure/health - Process and pipeline metrics
//
// Users:
//   - POST /api/v1/users - Create user
//   - GET  /api/v1/users/{id} - Get user
//
// Monitors:
//   - POST   /api/v1/monitors - Create monitor
//   - GET    /api/v1/monitors?user_id= - List a user's monitors
//   - GET    /api/v1/monitors/{id} - Get monitor
//   - PUT    /api/v1/monitors/{id} - Update monitor
//   - DELETE /api/v1/monitors/{id} - Delete monitor
//   - POST   /api/v1/monitors/{id}/pause - Pause
//   - POST   /api/v1/monitors/{id}/resume - Resume
//   - GET    /api/v1/monitors/{id}/events?page= - Event history
//   - GET    /api/v1/monitors/{id}/uptime?days= - Rolling uptime
//   - GET    /api/v1/monitors/{id}/response-times?hours= - Sample series
//
// Aggregations:
//   - GET /api/v1/stats?user_id= - Up/Down/Paused counts
//   - GET /api/v1/downtime/latest?user_id= - Most recent adverse event
//   - GET /api/v1/alerts?user_id=&page= - Read-only alert queue view
//
// Agents:
//   - POST   /api/v1/agents - Register agent, mint API key
//   - GET    /api/v1/agents - List agents with staleness
//   - DELETE /api/v1/agents/{id} - Remove agent
//   - POST   /api/v1/agents/{id}/heartbeat - Agent liveness (agent-key auth)
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/cache"
	"github.com/vigil-net/uptime-mon/control-plane/internal/config"
	"github.com/vigil-net/uptime-mon/control-plane/internal/metrics"
	"github.com/vigil-net/uptime-mon/control-plane/internal/service"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// Server is the HTTP API server.
type Server struct {
	svc              *service.Service
	metricsCollector *metrics.Collector
	cache            *cache.Cache
	logger           *slog.Logger
	mux              *http.ServeMux

	// operatorKeyHash is the bcrypt hash mutating endpoints are checked
	// against. Empty means open mode.
	operatorKeyHash string
}

// NewServer creates a new API server. operatorKeyHash may be empty; the
// server then accepts mutations unauthenticated and says so at startup.
func NewServer(svc *service.Service, metricsCollector *metrics.Collector, responseCache *cache.Cache, operatorKeyHash string, logger *slog.Logger) *Server {
	s := &Server{
		svc:              svc,
		metricsCollector: metricsCollector,
		cache:            responseCache,
		logger:           logger.With("component", "api"),
		mux:              http.NewServeMux(),
	}
	if operatorKeyHash == "" {
		s.logger.Warn("no operator API key hash configured, mutating endpoints are open")
	} else {
		s.operatorKeyHash = operatorKeyHash
	}
	s.registerRoutes()
	return s
}

// Handler returns the server wrapped with the request timeout.
func (s *Server) Handler() http.Handler {
	return http.TimeoutHandler(s, 60*time.Second, `{"error":"request timed out"}`)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Agent-ID")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", time.Since(start))
}

func (s *Server) registerRoutes() {
	operator := s.operatorAuth
	agent := s.agentAuth

	// Health
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/infrastructure/health", s.handleInfrastructureHealth)

	// Users
	s.mux.HandleFunc("POST /api/v1/users", operator(s.handleCreateUser))
	s.mux.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)

	// Monitors - static routes before wildcard {id} routes
	s.mux.HandleFunc("POST /api/v1/monitors", operator(s.handleCreateMonitor))
	s.mux.HandleFunc("GET /api/v1/monitors", s.handleListMonitors)
	s.mux.HandleFunc("GET /api/v1/monitors/{id}", s.handleGetMonitor)
	s.mux.HandleFunc("PUT /api/v1/monitors/{id}", operator(s.handleUpdateMonitor))
	s.mux.HandleFunc("DELETE /api/v1/monitors/{id}", operator(s.handleDeleteMonitor))
	s.mux.HandleFunc("POST /api/v1/monitors/{id}/pause", operator(s.handlePauseMonitor))
	s.mux.HandleFunc("POST /api/v1/monitors/{id}/resume", operator(s.handleResumeMonitor))
	s.mux.HandleFunc("GET /api/v1/monitors/{id}/events", s.handleMonitorEvents)
	s.mux.HandleFunc("GET /api/v1/monitors/{id}/uptime", s.handleMonitorUptime)
	s.mux.HandleFunc("GET /api/v1/monitors/{id}/response-times", s.handleMonitorResponseTimes)

	// Aggregations
	s.mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/v1/downtime/latest", s.handleLatestDowntime)
	s.mux.HandleFunc("GET /api/v1/alerts", s.handleListAlerts)

	// Agents
	s.mux.HandleFunc("POST /api/v1/agents", operator(s.handleRegisterAgent))
	s.mux.HandleFunc("GET /api/v1/agents", s.handleListAgents)
	s.mux.HandleFunc("DELETE /api/v1/agents/{id}", operator(s.handleDeleteAgent))
	s.mux.HandleFunc("POST /api/v1/agents/{id}/heartbeat", agent(s.handleAgentHeartbeat))
}

// =============================================================================
// HEALTH
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store().Ping(r.Context()); err != nil {
		s.logger.Error("health check: database unreachable", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleInfrastructureHealth(w http.ResponseWriter, r *http.Request) {
	if s.metricsCollector == nil {
		s.writeError(w, http.StatusServiceUnavailable, "metrics collector not initialized")
		return
	}

	const cacheKey = "infrastructure_health"
	if s.serveCached(w, r, cacheKey) {
		return
	}

	health, err := s.metricsCollector.GetInfrastructureHealth(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to get infrastructure health")
		return
	}

	s.cacheResult(r, cacheKey, health, config.CacheTTLInfraHealth)
	s.writeJSON(w, http.StatusOK, health)
}

// =============================================================================
// USERS
// =============================================================================

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var u types.User
	if err := s.readJSON(r, &u); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.svc.CreateUser(r.Context(), &u); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("get user failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if u == nil {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}

	s.writeJSON(w, http.StatusOK, u)
}

// =============================================================================
// MONITORS
// =============================================================================

func (s *Server) handleCreateMonitor(w http.ResponseWriter, r *http.Request) {
	var m types.Monitor
	if err := s.readJSON(r, &m); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.svc.CreateMonitor(r.Context(), &m); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	monitors, err := s.svc.ListMonitors(r.Context(), userID)
	if err != nil {
		s.logger.Error("list monitors failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list monitors")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"monitors": monitors,
		"count":    len(monitors),
	})
}

func (s *Server) handleGetMonitor(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.GetMonitor(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("get monitor failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get monitor")
		return
	}
	if m == nil {
		s.writeError(w, http.StatusNotFound, "monitor not found")
		return
	}

	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMonitor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := s.svc.GetMonitor(r.Context(), id)
	if err != nil {
		s.logger.Error("get monitor failed", "monitor_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get monitor")
		return
	}
	if existing == nil {
		s.writeError(w, http.StatusNotFound, "monitor not found")
		return
	}

	var m types.Monitor
	if err := s.readJSON(r, &m); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.ID = id
	if m.UserID == "" {
		m.UserID = existing.UserID
	}

	if err := s.svc.UpdateMonitor(r.Context(), &m); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMonitor(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteMonitor(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePauseMonitor(w http.ResponseWriter, r *http.Request) {
	s.setPaused(w, r, true)
}

func (s *Server) handleResumeMonitor(w http.ResponseWriter, r *http.Request) {
	s.setPaused(w, r, false)
}

func (s *Server) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	if err := s.svc.SetMonitorPaused(r.Context(), r.PathValue("id"), paused); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":        r.PathValue("id"),
		"is_paused": paused,
	})
}

// =============================================================================
// MONITOR READ AGGREGATIONS
// =============================================================================

func (s *Server) handleMonitorEvents(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)

	history, err := s.svc.EventHistory(r.Context(), r.PathValue("id"), page)
	if err != nil {
		s.logger.Error("event history failed", "monitor_id", r.PathValue("id"), "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load event history")
		return
	}

	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleMonitorUptime(w http.ResponseWriter, r *http.Request) {
	monitorID := r.PathValue("id")
	days := queryInt(r, "days", 30)

	cacheKey := fmt.Sprintf("uptime_%s_%d", monitorID, days)
	if s.serveCached(w, r, cacheKey) {
		return
	}

	report, err := s.svc.RollingUptime(r.Context(), monitorID, days)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.cacheResult(r, cacheKey, report, config.CacheTTLUptime)
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMonitorResponseTimes(w http.ResponseWriter, r *http.Request) {
	monitorID := r.PathValue("id")
	hours := queryInt(r, "hours", 24)

	points, err := s.svc.ResponseTimes(r.Context(), monitorID, hours)
	if err != nil {
		s.logger.Error("response times failed", "monitor_id", monitorID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load response times")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"monitor_id": monitorID,
		"hours":      hours,
		"points":     points,
		"count":      len(points),
	})
}

// =============================================================================
// AGGREGATIONS
// =============================================================================

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	cacheKey := "stats_" + userID
	if s.serveCached(w, r, cacheKey) {
		return
	}

	stats, err := s.svc.MonitoringStats(r.Context(), userID)
	if err != nil {
		s.logger.Error("monitoring stats failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	s.cacheResult(r, cacheKey, stats, config.CacheTTLStats)
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLatestDowntime(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	report, err := s.svc.LatestDowntime(r.Context(), userID)
	if err != nil {
		s.logger.Error("latest downtime failed", "user_id", userID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load latest downtime")
		return
	}
	if report == nil {
		s.writeError(w, http.StatusNotFound, "no downtime recorded")
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := types.AlertFilter{
		UserID:    r.URL.Query().Get("user_id"),
		MonitorID: r.URL.Query().Get("monitor_id"),
		Limit:     config.DefaultPaginationLimit,
	}
	if page := queryInt(r, "page", 1); page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}

	alerts, err := s.svc.ListAlerts(r.Context(), filter)
	if err != nil {
		s.logger.Error("list alerts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	s.writeJSON(w, http.StatusOK, alerts)
}

// =============================================================================
// AGENTS
// =============================================================================

func (s *Server) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var a types.MonitorAgent
	if err := s.readJSON(r, &a); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.svc.RegisterAgent(r.Context(), &a)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The plaintext key appears in this response and nowhere else.
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"agent":   result.Agent,
		"api_key": result.APIKey,
	})
}

// agentView decorates a registration with heartbeat staleness for operators.
type agentView struct {
	types.MonitorAgent
	Stale bool `json:"stale"`
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.svc.ListAgents(r.Context())
	if err != nil {
		s.logger.Error("list agents failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}

	now := time.Now().UTC()
	views := make([]agentView, len(agents))
	for i, a := range agents {
		views[i] = agentView{
			MonitorAgent: a,
			Stale:        a.LastSeenAt == nil || now.Sub(*a.LastSeenAt) > config.AgentStaleThreshold,
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"agents": views,
		"count":  len(views),
	})
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteAgent(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAgentHeartbeat(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("id")

	if err := s.svc.ProcessHeartbeat(r.Context(), agentID); err != nil {
		s.logger.Error("heartbeat failed", "agent_id", agentID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "heartbeat failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// serveCached writes the cached body for key if present. Reports whether the
// request was served.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(r.Context(), key)
	if err != nil || data == nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
	return true
}

func (s *Server) cacheResult(r *http.Request, key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(r.Context(), key, v, ttl); err != nil {
		s.logger.Warn("failed to cache response", "key", key, "error", err)
	}
}

// queryInt parses an integer query parameter, falling back to def when absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
