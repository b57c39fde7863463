package narrative

import "strings"

// Keyword vocabularies for the text adjustment term. Matching is
// case-insensitive substring counting over the generated quote text.
var positiveWords = []string{
	"bullish", "surge", "rally", "growth", "adoption", "partnership", "breakthrough",
	"innovation", "upgrade", "positive", "gains", "rising", "momentum", "optimistic",
	"expansion", "success", "milestone", "achievement", "promising", "strong", "moon",
	"rocket", "explosive", "massive", "incredible", "outstanding", "phenomenal",
}

var negativeWords = []string{
	"bearish", "crash", "decline", "drop", "fall", "loss", "concern", "risk",
	"negative", "down", "plunge", "sell-off", "weakness", "trouble", "problem",
	"regulatory", "ban", "restriction", "investigation", "lawsuit", "hack", "dump",
	"collapse", "disaster", "terrible", "awful", "devastating", "catastrophic",
}

const keywordWeight = 0.3

// Sentiment scores a record in [-3, 3]: a banded base term from the
// 30d change plus/minus 0.3 per keyword occurrence in the quote text.
// Generated, not measured; the score exists for display ordering only.
func Sentiment(text string, monthlyChange float64) float64 {
	var score float64
	switch {
	case monthlyChange > 100:
		score = 2.5
	case monthlyChange > 50:
		score = 2.0
	case monthlyChange > 20:
		score = 1.5
	case monthlyChange > 0:
		score = 1.0
	case monthlyChange > -20:
		score = -1.0
	case monthlyChange > -50:
		score = -1.5
	default:
		score = -2.0
	}

	lower := strings.ToLower(text)
	for _, w := range positiveWords {
		score += keywordWeight * float64(strings.Count(lower, w))
	}
	for _, w := range negativeWords {
		score -= keywordWeight * float64(strings.Count(lower, w))
	}

	if score > 3 {
		return 3
	}
	if score < -3 {
		return -3
	}
	return score
}
