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

// kalshiMarket is a market as returned by the Kalshi REST API. Prices are in
// cents (1-99) and liquidity is expressed as open interest in contracts.
type kalshiMarket struct {
	Ticker       string  `json:"ticker"`
	Title        string  `json:"title"`
	Status       string  `json:"status"` // "open", "closed", "settled"
	YesAsk       float64 `json:"yes_ask"`
	NoAsk        float64 `json:"no_ask"`
	Volume24H    int64   `json:"volume_24h"`
	OpenInterest int64   `json:"open_interest"`
}

// kalshiMarketsResponse is the paginated envelope for /markets.
type kalshiMarketsResponse struct {
	Markets []kalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// Kalshi fetches markets from the public Kalshi REST API and rescales cent
// prices and contract-count liquidity into the canonical dollar shape.
type Kalshi struct {
	cfg      config.VenueConfig
	venues   domain.VenueStore
	client   *http.Client
	logger   *slog.Logger
	venueID  string
	pageSize int
}

// NewKalshi creates the Kalshi adapter.
func NewKalshi(cfg config.VenueConfig, timeout time.Duration, pageSize int, venues domain.VenueStore, logger *slog.Logger) *Kalshi {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Kalshi{
		cfg:      cfg,
		venues:   venues,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With(slog.String("venue", "kalshi")),
		pageSize: pageSize,
	}
}

// Name returns the venue slug.
func (k *Kalshi) Name() string { return "kalshi" }

// Initialize finds or creates the venue record and caches its ID.
func (k *Kalshi) Initialize(ctx context.Context) (string, error) {
	if k.venueID != "" {
		return k.venueID, nil
	}
	v, err := k.venues.FindOrCreate(ctx, domain.Venue{
		Name:    "Kalshi",
		Slug:    "kalshi",
		Status:  domain.VenueStatusActive,
		FeeRate: k.cfg.FeeRate,
	})
	if err != nil {
		return "", fmt.Errorf("kalshi: initialize venue: %w", err)
	}
	k.venueID = v.ID
	return k.venueID, nil
}

// FetchMarkets pages through open markets using cursor pagination. Any
// failure is logged and yields the markets collected so far.
func (k *Kalshi) FetchMarkets(ctx context.Context) []domain.Market {
	if k.venueID == "" {
		k.logger.Warn("fetch skipped: adapter not initialized")
		return nil
	}

	var out []domain.Market
	cursor := ""
	for {
		params := url.Values{}
		params.Set("status", "open")
		params.Set("limit", strconv.Itoa(k.pageSize))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := doGet(ctx, k.client, k.cfg.BaseURL+"/markets?"+params.Encode())
		if err != nil {
			k.logger.Error("fetch markets failed", slog.String("error", err.Error()))
			return out
		}

		var page kalshiMarketsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			k.logger.Error("decode markets failed", slog.String("error", err.Error()))
			return out
		}

		for i := range page.Markets {
			if m, ok := k.normalize(&page.Markets[i]); ok {
				out = append(out, m)
			}
		}

		if page.Cursor == "" || len(page.Markets) < k.pageSize {
			break
		}
		cursor = page.Cursor
	}

	k.logger.Info("fetched markets", slog.Int("count", len(out)))
	return out
}

// normalize converts a Kalshi market into the canonical shape: cent prices
// divided by 100, open-interest contracts valued at the side's price.
func (k *Kalshi) normalize(km *kalshiMarket) (domain.Market, bool) {
	if km.Status != "open" || km.Ticker == "" || km.Title == "" {
		return domain.Market{}, false
	}

	yes := km.YesAsk / 100
	no := km.NoAsk / 100
	oi := float64(km.OpenInterest)
	return domain.Market{
		VenueID:      k.venueID,
		ExternalID:   km.Ticker,
		Title:        km.Title,
		Category:     Categorize(km.Title),
		YesPrice:     yes,
		NoPrice:      no,
		YesLiquidity: oi * yes,
		NoLiquidity:  oi * no,
		Volume24h:    float64(km.Volume24H),
		Status:       domain.MarketStatusActive,
		LastUpdated:  time.Now().UTC(),
	}, true
}
