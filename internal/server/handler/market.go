package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arbradar/arbradar/internal/domain"
)

// MarketReader defines the facade methods the market handler requires.
type MarketReader interface {
	GetMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	reader MarketReader
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(reader MarketReader, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{reader: reader, logger: logger}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns active markets with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	markets, err := h.reader.GetMarkets(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}
	if markets == nil {
		markets = []domain.Market{}
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Count:   len(markets),
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}
