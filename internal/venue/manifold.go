package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arbradar/arbradar/internal/config"
	"github.com/arbradar/arbradar/internal/domain"
)

// manifoldMarket is a market as returned by the Manifold API. Binary
// markets carry a single probability; liquidity is the subsidy pool.
type manifoldMarket struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	OutcomeType    string    `json:"outcomeType"` // "BINARY" for yes/no
	Probability    flexFloat `json:"probability"`
	TotalLiquidity flexFloat `json:"totalLiquidity"`
	Volume24Hours  flexFloat `json:"volume24Hours"`
	IsResolved     bool      `json:"isResolved"`
	CloseTime      int64     `json:"closeTime"` // epoch millis
}

// Manifold fetches markets from the Manifold API. The single probability is
// expanded into complementary yes/no prices.
type Manifold struct {
	cfg      config.VenueConfig
	venues   domain.VenueStore
	client   *http.Client
	logger   *slog.Logger
	venueID  string
	pageSize int
}

// NewManifold creates the Manifold adapter.
func NewManifold(cfg config.VenueConfig, timeout time.Duration, pageSize int, venues domain.VenueStore, logger *slog.Logger) *Manifold {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Manifold{
		cfg:      cfg,
		venues:   venues,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With(slog.String("venue", "manifold")),
		pageSize: pageSize,
	}
}

// Name returns the venue slug.
func (m *Manifold) Name() string { return "manifold" }

// Initialize finds or creates the venue record and caches its ID.
func (m *Manifold) Initialize(ctx context.Context) (string, error) {
	if m.venueID != "" {
		return m.venueID, nil
	}
	v, err := m.venues.FindOrCreate(ctx, domain.Venue{
		Name:    "Manifold",
		Slug:    "manifold",
		Status:  domain.VenueStatusActive,
		FeeRate: m.cfg.FeeRate,
	})
	if err != nil {
		return "", fmt.Errorf("manifold: initialize venue: %w", err)
	}
	m.venueID = v.ID
	return m.venueID, nil
}

// FetchMarkets retrieves one page of recent binary markets. Manifold's API
// uses before-ID pagination; a single page of the most recent markets is
// enough for cross-venue matching.
func (m *Manifold) FetchMarkets(ctx context.Context) []domain.Market {
	if m.venueID == "" {
		m.logger.Warn("fetch skipped: adapter not initialized")
		return nil
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(m.pageSize))

	body, err := doGet(ctx, m.client, m.cfg.BaseURL+"/markets?"+params.Encode())
	if err != nil {
		m.logger.Error("fetch markets failed", slog.String("error", err.Error()))
		return nil
	}

	var page []manifoldMarket
	if err := json.Unmarshal(body, &page); err != nil {
		m.logger.Error("decode markets failed", slog.String("error", err.Error()))
		return nil
	}

	var out []domain.Market
	for i := range page {
		if mk, ok := m.normalize(&page[i]); ok {
			out = append(out, mk)
		}
	}

	m.logger.Info("fetched markets", slog.Int("count", len(out)))
	return out
}

// normalize converts a Manifold binary market into the canonical shape.
func (m *Manifold) normalize(mm *manifoldMarket) (domain.Market, bool) {
	if mm.OutcomeType != "BINARY" || mm.IsResolved || mm.ID == "" || mm.Question == "" {
		return domain.Market{}, false
	}
	if mm.CloseTime > 0 && time.UnixMilli(mm.CloseTime).Before(time.Now()) {
		return domain.Market{}, false
	}

	prob := float64(mm.Probability)
	liquidity := float64(mm.TotalLiquidity)
	return domain.Market{
		VenueID:      m.venueID,
		ExternalID:   mm.ID,
		Title:        mm.Question,
		Category:     Categorize(mm.Question),
		YesPrice:     prob,
		NoPrice:      1 - prob,
		YesLiquidity: liquidity / 2,
		NoLiquidity:  liquidity / 2,
		Volume24h:    float64(mm.Volume24Hours),
		Status:       domain.MarketStatusActive,
		LastUpdated:  time.Now().UTC(),
	}, true
}
