package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arbradar/arbradar/internal/domain"
)

// StatusReader defines the facade methods the status handler requires. It is
// declared locally so the handler package does not depend on the concrete
// service implementation.
type StatusReader interface {
	GetStatus(ctx context.Context) domain.Status
	GetStats(ctx context.Context) (domain.MarketStats, error)
}

// StatusHandler serves the engine status and stats endpoints.
type StatusHandler struct {
	reader StatusReader
	logger *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(reader StatusReader, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{reader: reader, logger: logger}
}

// GetStatus responds with the derived health status and data stats.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reader.GetStatus(r.Context()))
}

// GetStats responds with the aggregate data snapshot.
// GET /api/stats
func (h *StatusHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reader.GetStats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: stats failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
