package matcher

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbradar/arbradar/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeMarket(id, venueID, title string, cat domain.Category) domain.Market {
	return domain.Market{
		ID:       id,
		VenueID:  venueID,
		Title:    title,
		Category: cat,
		Status:   domain.MarketStatusActive,
	}
}

func TestMatcher_SpecElectionTitlesMatch(t *testing.T) {
	m := New(Config{}, testLogger())

	a := activeMarket("m1", "v1", "Trump wins 2024 Presidential Election", domain.CategoryPolitics)
	b := activeMarket("m2", "v2", "Donald Trump to be elected President in 2024", domain.CategoryPolitics)

	sim := m.Similarity(a, b)
	assert.GreaterOrEqual(t, sim, 0.7, "equivalent election titles should clear the default threshold")

	pairs := m.FindMarketPairs([]domain.Market{a, b})
	assert.Len(t, pairs, 1)
	assert.Equal(t, "m1", pairs[0].MarketA.ID)
	assert.Equal(t, "m2", pairs[0].MarketB.ID)
	assert.Equal(t, int(pairs[0].Similarity*100+0.5), pairs[0].Confidence)
}

func TestMatcher_SameVenueScoresZero(t *testing.T) {
	m := New(Config{}, testLogger())

	a := activeMarket("m1", "v1", "Trump wins 2024 election", domain.CategoryPolitics)
	b := activeMarket("m2", "v1", "Trump wins 2024 election", domain.CategoryPolitics)

	assert.Zero(t, m.Similarity(a, b))
	assert.Empty(t, m.FindMarketPairs([]domain.Market{a, b}))
}

func TestMatcher_CrossCategoryScoresZero(t *testing.T) {
	m := New(Config{}, testLogger())

	a := activeMarket("m1", "v1", "Bitcoin above 100k in 2024", domain.CategoryCrypto)
	b := activeMarket("m2", "v2", "Bitcoin above 100k in 2024", domain.CategoryPolitics)

	assert.Zero(t, m.Similarity(a, b))
}

func TestMatcher_InactiveMarketScoresZero(t *testing.T) {
	m := New(Config{}, testLogger())

	a := activeMarket("m1", "v1", "Fed cuts rates in March 2025", domain.CategoryEconomics)
	b := activeMarket("m2", "v2", "Fed cuts rates in March 2025", domain.CategoryEconomics)
	b.Status = domain.MarketStatusClosed

	assert.Zero(t, m.Similarity(a, b))
}

func TestMatcher_Symmetric(t *testing.T) {
	m := New(Config{}, testLogger())

	a := activeMarket("m1", "v1", "Harris wins popular vote 2024", domain.CategoryPolitics)
	b := activeMarket("m2", "v2", "Kamala Harris to win the 2024 popular vote", domain.CategoryPolitics)

	assert.Equal(t, m.Similarity(a, b), m.Similarity(b, a))
}

func TestMatcher_ThresholdFiltersWeakPairs(t *testing.T) {
	m := New(Config{Threshold: 0.7}, testLogger())

	a := activeMarket("m1", "v1", "Trump wins 2024 election", domain.CategoryPolitics)
	b := activeMarket("m2", "v2", "Newsom announces senate run", domain.CategoryPolitics)

	assert.Less(t, m.Similarity(a, b), 0.7)
	assert.Empty(t, m.FindMarketPairs([]domain.Market{a, b}))
}

func TestMatcher_CanonicalPairOrder(t *testing.T) {
	m := New(Config{}, testLogger())

	// Feed the higher ID first; the candidate must still come out A < B.
	a := activeMarket("zz-late", "v1", "Trump wins 2024 Presidential Election", domain.CategoryPolitics)
	b := activeMarket("aa-early", "v2", "Trump wins 2024 Presidential Election", domain.CategoryPolitics)

	pairs := m.FindMarketPairs([]domain.Market{a, b})
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, "aa-early", pairs[0].MarketA.ID)
		assert.Equal(t, "zz-late", pairs[0].MarketB.ID)
		assert.Less(t, pairs[0].MarketA.ID, pairs[0].MarketB.ID)
	}
}

func TestMatcher_OneMarketMatchesSeveralVenues(t *testing.T) {
	m := New(Config{}, testLogger())

	title := "Trump wins 2024 Presidential Election"
	markets := []domain.Market{
		activeMarket("m1", "v1", title, domain.CategoryPolitics),
		activeMarket("m2", "v2", title, domain.CategoryPolitics),
		activeMarket("m3", "v3", title, domain.CategoryPolitics),
	}

	// Three venues with the same contract yield all three cross-venue pairs.
	assert.Len(t, m.FindMarketPairs(markets), 3)
}

func TestJaccard_EmptySetsScoreZero(t *testing.T) {
	assert.Zero(t, jaccard(map[string]bool{}, map[string]bool{}))
	assert.Zero(t, jaccard(map[string]bool{"a": true}, map[string]bool{}))
}

func TestKeyTerms_ExtractsVocabularyAndYears(t *testing.T) {
	terms := keyTerms("Trump elected President in the 2024 general election")

	assert.True(t, terms["trump"])
	assert.True(t, terms["president"])
	assert.True(t, terms["election"]) // folded from "elected"
	assert.True(t, terms["general"])
	assert.True(t, terms["2024"])
	assert.False(t, terms["biden"])
}
