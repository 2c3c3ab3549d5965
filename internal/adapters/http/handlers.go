package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth returns overall service health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
		"conversions": s.history.Len(),
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConversions returns the most recent conversions, newest first.
func (s *Server) handleConversions(w http.ResponseWriter, _ *http.Request) {
	results := s.history.Recent()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversions": results,
		"count":       len(results),
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
