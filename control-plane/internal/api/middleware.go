package api

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// operatorAuth guards mutating endpoints with the configured operator key.
// With no hash configured the server runs in open mode; the startup warning
// in NewServer is the only gate.
func (s *Server) operatorAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.operatorKeyHash == "" {
			next(w, r)
			return
		}

		key := bearerToken(r)
		if key == "" {
			s.writeError(w, http.StatusUnauthorized, "missing API key")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(s.operatorKeyHash), []byte(key)); err != nil {
			s.logger.Warn("operator auth failed", "path", r.URL.Path)
			s.writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next(w, r)
	}
}

// agentAuth authenticates inbound agent calls: X-Agent-ID names the agent,
// the Bearer token must match its stored key hash. The path id must agree
// with the header so an agent cannot heartbeat for another.
func (s *Server) agentAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID := r.Header.Get("X-Agent-ID")
		key := bearerToken(r)
		if agentID == "" || key == "" {
			s.writeError(w, http.StatusUnauthorized, "missing agent credentials")
			return
		}
		if pathID := r.PathValue("id"); pathID != "" && pathID != agentID {
			s.writeError(w, http.StatusForbidden, "agent id mismatch")
			return
		}

		agent, err := s.svc.GetAgent(r.Context(), agentID)
		if err != nil {
			s.logger.Error("agent auth lookup failed", "agent_id", agentID, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if agent == nil || agent.APIKeyHash == "" {
			s.writeError(w, http.StatusUnauthorized, "unknown agent")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(agent.APIKeyHash), []byte(key)); err != nil {
			s.logger.Warn("agent auth failed", "agent_id", agentID, "path", r.URL.Path)
			s.writeError(w, http.StatusUnauthorized, "invalid agent key")
			return
		}

		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}
