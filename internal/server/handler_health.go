package server

import (
	"net/http"
	"runtime"
	"time"
)

// Version is reported by /healthz.
const Version = "0.1.0"

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	Sessions  int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	status, storeState := "healthy", "ok"
	if _, err := s.store.CountSessions(r.Context()); err != nil {
		s.logger.Error("health: store check failed", "error", err)
		status, storeState = "degraded", "error"
	}

	respondOK(w, reqID, healthResponse{
		Status:    status,
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     storeState,
		Sessions:  s.ui.Sessions().Live(),
	})
}
