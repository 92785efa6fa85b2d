package server

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// MaxHistoryLimit caps the limit query parameter.
const MaxHistoryLimit = 500

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus returns the current/previous deployments and the total
// count, in the same shape the CLI's status --json emits.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Controller.Status()
	if err != nil {
		s.Logger.Error("Failed to load history", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}

	s.respondJSON(w, http.StatusOK, status.Payload())
}

// HandleHistory returns recent entries, most recent first. The limit query
// parameter defaults to the server's configured limit.
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	entries, err := s.Controller.List(limit)
	if err != nil {
		s.Logger.Error("Failed to load history", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}

	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Logger.Error("Failed to encode response", "error", err)
	}
}
