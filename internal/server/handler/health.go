package handler

import (
	"net/http"
	"time"
)

// HealthHandler serves the liveness endpoint. It reports only that the
// process is up; data health lives on /api/status.
type HealthHandler struct {
	started time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now().UTC()}
}

// HealthCheck responds with the process liveness and uptime.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"service":        "arbradar",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
