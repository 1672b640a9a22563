// Package matcher performs approximate cross-venue entity resolution: it
// compares active markets pairwise and emits candidate pairs believed to
// resolve on the same real-world event, scored by weighted text similarity.
package matcher

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/arbradar/arbradar/internal/domain"
)

// PairCandidate is a matched pair of markets with its similarity-derived
// confidence. MarketA/MarketB are in canonical order (A.ID < B.ID).
type PairCandidate struct {
	MarketA    domain.Market
	MarketB    domain.Market
	Similarity float64
	Confidence int // round(Similarity * 100)
}

// Config holds the matcher parameters.
type Config struct {
	Threshold     float64 // minimum similarity for a candidate, default 0.7
	TitleWeight   float64 // weight of the title-token Jaccard, default 0.7
	KeyTermWeight float64 // weight of the key-term Jaccard, default 0.3
}

// Matcher compares markets across venues using weighted Jaccard similarity
// over title tokens and extracted key terms.
type Matcher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Matcher. Zero-valued config fields fall back to defaults.
func New(cfg Config, logger *slog.Logger) *Matcher {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.7
	}
	if cfg.TitleWeight <= 0 && cfg.KeyTermWeight <= 0 {
		cfg.TitleWeight, cfg.KeyTermWeight = 0.7, 0.3
	}
	return &Matcher{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "matcher")),
	}
}

// yearPattern matches 4-digit years in the 2000s, e.g. "2024".
var yearPattern = regexp.MustCompile(`\b20\d\d\b`)

// keyTermVocabulary is the fixed vocabulary used for key-term extraction:
// named political figures plus domain keywords. Years are extracted
// separately via yearPattern.
var keyTermVocabulary = []string{
	"trump", "biden", "harris", "desantis", "newsom", "vance", "obama",
	"election", "president", "primary", "general",
	"senate", "congress", "governor", "nominee",
}

// tokenPattern splits titles into lowercase word tokens.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// stopwords are dropped from title tokens so filler words do not dominate
// the Jaccard overlap.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"on": true, "by": true, "be": true, "will": true, "is": true, "at": true,
	"for": true, "and": true, "or": true, "wins": true, "win": true,
	"won": true,
}

// tokenVariants folds common morphological variants onto one token so
// "Presidential Election" and "elected President" overlap. The table is
// deliberately small and explicit; no generic stemming.
var tokenVariants = map[string]string{
	"presidential": "president",
	"presidency":   "president",
	"elected":      "election",
	"elects":       "election",
	"elect":        "election",
	"elections":    "election",
	"primaries":    "primary",
}

// FindMarketPairs compares every unordered pair of markets from different
// venues and the same category and returns the candidates whose similarity
// meets the threshold. The scan is O(n^2) over active markets; that is an
// accepted scaling ceiling, not an oversight. One market may match several
// equivalents across venues.
func (m *Matcher) FindMarketPairs(markets []domain.Market) []PairCandidate {
	var out []PairCandidate
	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			sim := m.Similarity(markets[i], markets[j])
			if sim < m.cfg.Threshold {
				continue
			}
			a, b := markets[i], markets[j]
			if b.ID < a.ID {
				a, b = b, a
			}
			out = append(out, PairCandidate{
				MarketA:    a,
				MarketB:    b,
				Similarity: sim,
				Confidence: int(math.Round(sim * 100)),
			})
		}
	}
	m.logger.Info("pair scan complete",
		slog.Int("markets", len(markets)),
		slog.Int("candidates", len(out)),
	)
	return out
}

// Similarity computes the weighted similarity of two markets. Same-venue and
// cross-category pairs score exactly 0 without computing the comparison.
// The function is symmetric.
func (m *Matcher) Similarity(a, b domain.Market) float64 {
	if a.VenueID == b.VenueID {
		return 0
	}
	if a.Category != b.Category {
		return 0
	}
	if a.Status != domain.MarketStatusActive || b.Status != domain.MarketStatusActive {
		return 0
	}

	titleSim := jaccard(titleTokens(a.Title), titleTokens(b.Title))
	termSim := jaccard(keyTerms(a.Title), keyTerms(b.Title))

	total := m.cfg.TitleWeight + m.cfg.KeyTermWeight
	return (m.cfg.TitleWeight*titleSim + m.cfg.KeyTermWeight*termSim) / total
}

// titleTokens lowercases and tokenizes a title, dropping stopwords and
// folding known variants.
func titleTokens(title string) map[string]bool {
	tokens := tokenPattern.FindAllString(strings.ToLower(title), -1)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if stopwords[t] {
			continue
		}
		if v, ok := tokenVariants[t]; ok {
			t = v
		}
		set[t] = true
	}
	return set
}

// keyTerms extracts the fixed-vocabulary terms and 4-digit years present in
// a title. Terms are matched against normalized tokens so that "elected"
// counts as "election".
func keyTerms(title string) map[string]bool {
	tokens := titleTokens(title)
	set := make(map[string]bool)
	for _, term := range keyTermVocabulary {
		if tokens[term] {
			set[term] = true
		}
	}
	for _, y := range yearPattern.FindAllString(strings.ToLower(title), -1) {
		set[y] = true
	}
	return set
}

// jaccard computes |A∩B| / |A∪B|. Two empty sets score 0 rather than 1 so
// that titles with no extractable terms do not spuriously match.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
