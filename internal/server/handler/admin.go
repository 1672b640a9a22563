package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arbradar/arbradar/internal/domain"
	"github.com/arbradar/arbradar/internal/pipeline"
)

// AdminService defines the facade methods behind the operational endpoints.
type AdminService interface {
	Refresh(ctx context.Context) (pipeline.CycleResult, error)
	PerformMaintenance(ctx context.Context) (domain.MaintenanceReport, error)
	ValidateQuality(ctx context.Context) (domain.QualityReport, error)
}

// AdminHandler serves the sync trigger, maintenance, and quality endpoints.
type AdminHandler struct {
	svc    AdminService
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

// TriggerSync runs a synchronous sync cycle. A cycle already in flight
// yields 409; the trigger is dropped, not queued.
// POST /api/sync
func (h *AdminHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSyncRunning) {
			writeError(w, http.StatusConflict, "sync cycle already running")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: sync failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"markets":       result.Markets,
		"pairs":         result.Pairs,
		"opportunities": result.Opportunities,
		"duration_ms":   result.Duration.Milliseconds(),
		"synced_at":     result.SyncedAt,
	})
}

// RunMaintenance closes stale markets, prunes dead pairs, and re-syncs.
// POST /api/maintenance
func (h *AdminHandler) RunMaintenance(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.PerformMaintenance(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: maintenance failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "maintenance failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetQuality runs the data-quality checks.
// GET /api/quality
func (h *AdminHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ValidateQuality(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: quality check failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "quality check failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
