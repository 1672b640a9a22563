package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arbradar/arbradar/internal/domain"
)

// OpportunityReader defines the facade methods the opportunity handler
// requires.
type OpportunityReader interface {
	GetOpportunities(ctx context.Context, filter domain.OpportunityFilter) ([]domain.ArbitrageOpportunity, error)
}

// OpportunityHandler serves the opportunity query endpoint.
type OpportunityHandler struct {
	reader OpportunityReader
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(reader OpportunityReader, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{reader: reader, logger: logger}
}

// listOpportunitiesResponse wraps the list endpoint output with metadata.
type listOpportunitiesResponse struct {
	Opportunities []domain.ArbitrageOpportunity `json:"opportunities"`
	Count         int                           `json:"count"`
}

// ListOpportunities returns active opportunities, best net spread first.
// GET /api/opportunities?min_spread=2&min_liquidity=1000&category=politics&limit=50
func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	filter := parseOpportunityFilter(r)

	opps, err := h.reader.GetOpportunities(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}
	if opps == nil {
		opps = []domain.ArbitrageOpportunity{}
	}

	writeJSON(w, http.StatusOK, listOpportunitiesResponse{
		Opportunities: opps,
		Count:         len(opps),
	})
}
