// Package server exposes the agent's probe endpoint.
//
// The control plane POSTs a probe request to / and gets one probe result
// back. There is no other surface: agents hold no state, so one request
// maps to exactly one probe execution.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// Server handles inbound probe requests.
type Server struct {
	prober Prober
	token  string
	region string
	logger *slog.Logger
}

// Prober executes one probe request.
type Prober interface {
	Execute(ctx context.Context, req types.ProbeRequest) (*types.ProbeResponse, error)
}

// New creates a probe server. Requests whose token does not match are
// rejected before any probe runs.
func New(prober Prober, token, region string, logger *slog.Logger) *Server {
	return &Server{
		prober: prober,
		token:  token,
		region: region,
		logger: logger.With("component", "server"),
	}
}

// Handler returns the agent's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleProbe)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req types.ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.authorized(&req, r) {
		s.logger.Warn("rejected probe with bad token", "remote", r.RemoteAddr)
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	resp, err := s.prober.Execute(r.Context(), req)
	if err != nil {
		s.logger.Warn("probe rejected", "type", req.Type, "error", err)
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debug("probe complete", "type", req.Type, "url", req.URL)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"region": s.region,
	})
}

// authorized accepts the shared token from the request body or from a
// Bearer header; the control plane sends both.
func (s *Server) authorized(req *types.ProbeRequest, r *http.Request) bool {
	if s.token == "" {
		return true
	}
	if req.Token == s.token {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ") == s.token && strings.HasPrefix(auth, "Bearer ")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
