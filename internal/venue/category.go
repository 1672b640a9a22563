package venue

import (
	"strings"

	"github.com/arbradar/arbradar/internal/domain"
)

// categoryKeywords maps lowercase title keywords to a category. Matching is
// deterministic: categories are checked in a fixed order and the first hit
// wins.
var categoryOrder = []domain.Category{
	domain.CategoryPolitics,
	domain.CategorySports,
	domain.CategoryCrypto,
	domain.CategoryEconomics,
}

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryPolitics: {
		"trump", "biden", "harris", "election", "president", "presidential",
		"senate", "congress", "governor", "primary", "nominee", "electoral",
	},
	domain.CategorySports: {
		"nfl", "nba", "mlb", "nhl", "super bowl", "world cup", "championship",
		"playoffs", "finals", "olympics",
	},
	domain.CategoryCrypto: {
		"bitcoin", "btc", "ethereum", "eth", "crypto", "solana", "token",
	},
	domain.CategoryEconomics: {
		"fed", "inflation", "gdp", "recession", "interest rate", "cpi",
		"unemployment", "tariff",
	},
}

// Categorize assigns a category from deterministic keyword matching on the
// market title.
func Categorize(title string) domain.Category {
	lower := strings.ToLower(title)
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				return cat
			}
		}
	}
	return domain.CategoryOther
}
