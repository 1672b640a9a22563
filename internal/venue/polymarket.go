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

// polymarketMarket is a market as returned by the Polymarket Gamma API.
// Prices arrive as JSON-encoded string arrays and several numeric fields may
// be numbers or strings depending on the endpoint version.
type polymarketMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Active        flexBool  `json:"active"`
	Closed        bool      `json:"closed"`
	Outcomes      string    `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string    `json:"outcomePrices"` // e.g. "[\"0.52\",\"0.48\"]"
	Liquidity     flexFloat `json:"liquidityNum"`
	Volume24h     flexFloat `json:"volume24hr"`
}

// Polymarket fetches markets from the Polymarket Gamma API. Prices are
// already probabilities in [0,1]; liquidity is in dollars.
type Polymarket struct {
	cfg      config.VenueConfig
	venues   domain.VenueStore
	client   *http.Client
	logger   *slog.Logger
	venueID  string
	pageSize int
}

// NewPolymarket creates the Polymarket adapter.
func NewPolymarket(cfg config.VenueConfig, timeout time.Duration, pageSize int, venues domain.VenueStore, logger *slog.Logger) *Polymarket {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Polymarket{
		cfg:      cfg,
		venues:   venues,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With(slog.String("venue", "polymarket")),
		pageSize: pageSize,
	}
}

// Name returns the venue slug.
func (p *Polymarket) Name() string { return "polymarket" }

// Initialize finds or creates the venue record and caches its ID.
func (p *Polymarket) Initialize(ctx context.Context) (string, error) {
	if p.venueID != "" {
		return p.venueID, nil
	}
	v, err := p.venues.FindOrCreate(ctx, domain.Venue{
		Name:    "Polymarket",
		Slug:    "polymarket",
		Status:  domain.VenueStatusActive,
		FeeRate: p.cfg.FeeRate,
	})
	if err != nil {
		return "", fmt.Errorf("polymarket: initialize venue: %w", err)
	}
	p.venueID = v.ID
	return p.venueID, nil
}

// FetchMarkets pages through active Gamma markets. Any failure is logged and
// yields the markets collected so far (possibly none).
func (p *Polymarket) FetchMarkets(ctx context.Context) []domain.Market {
	if p.venueID == "" {
		p.logger.Warn("fetch skipped: adapter not initialized")
		return nil
	}

	var out []domain.Market
	offset := 0
	for {
		params := url.Values{}
		params.Set("active", "true")
		params.Set("closed", "false")
		params.Set("limit", strconv.Itoa(p.pageSize))
		params.Set("offset", strconv.Itoa(offset))

		body, err := doGet(ctx, p.client, p.cfg.BaseURL+"/markets?"+params.Encode())
		if err != nil {
			p.logger.Error("fetch markets failed", slog.String("error", err.Error()), slog.Int("offset", offset))
			return out
		}

		var page []polymarketMarket
		if err := json.Unmarshal(body, &page); err != nil {
			p.logger.Error("decode markets failed", slog.String("error", err.Error()))
			return out
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			if m, ok := p.normalize(&page[i]); ok {
				out = append(out, m)
			}
		}

		if len(page) < p.pageSize {
			break
		}
		offset += p.pageSize
	}

	p.logger.Info("fetched markets", slog.Int("count", len(out)))
	return out
}

// normalize converts a Gamma market into the canonical shape. Markets that
// are not binary yes/no contracts are skipped.
func (p *Polymarket) normalize(am *polymarketMarket) (domain.Market, bool) {
	if am.Closed || !bool(am.Active) || am.ID == "" || am.Question == "" {
		return domain.Market{}, false
	}

	outcomes := decodeStringArray(am.Outcomes)
	if len(outcomes) != 2 {
		return domain.Market{}, false
	}

	prices := decodeFloatArray(am.OutcomePrices)
	var yes, no float64
	if len(prices) == 2 {
		yes, no = prices[0], prices[1]
	}

	liquidity := float64(am.Liquidity)
	return domain.Market{
		VenueID:      p.venueID,
		ExternalID:   am.ID,
		Title:        am.Question,
		Category:     Categorize(am.Question),
		YesPrice:     yes,
		NoPrice:      no,
		YesLiquidity: liquidity / 2,
		NoLiquidity:  liquidity / 2,
		Volume24h:    float64(am.Volume24h),
		Status:       domain.MarketStatusActive,
		LastUpdated:  time.Now().UTC(),
	}, true
}

// decodeStringArray parses Gamma's JSON-encoded string arrays, e.g.
// "[\"Yes\",\"No\"]". Malformed input yields nil.
func decodeStringArray(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// decodeFloatArray parses Gamma's JSON-encoded numeric string arrays, e.g.
// "[\"0.52\",\"0.48\"]". Unparsable entries default to zero.
func decodeFloatArray(s string) []float64 {
	raw := decodeStringArray(s)
	if raw == nil {
		return nil
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		f, err := strconv.ParseFloat(r, 64)
		if err != nil {
			f = 0
		}
		out[i] = f
	}
	return out
}
