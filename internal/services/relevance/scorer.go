// Package relevance implements the cheap lexical filter that decides which
// links the focused crawler follows.
package relevance

import "strings"

var (
	streamingKeywords = []string{"live", "stream", "watch", "tv", "video", "player", "free"}
	sportsKeywords    = []string{"nfl", "nba", "nhl", "mlb", "soccer", "football", "basketball", "sports"}
	negativeKeywords  = []string{"privacy", "terms", "contact", "about", "dmca", "legal", "cookie"}
)

// Score rates a link's worth for streaming discovery from its anchor text
// and URL. Deterministic, clamped to [0, 1].
func Score(anchorText, url string) float64 {
	score := 0.0
	text := strings.ToLower(anchorText)
	urlLower := strings.ToLower(url)

	for _, keyword := range streamingKeywords {
		if strings.Contains(text, keyword) {
			score += 0.3
		}
	}
	for _, keyword := range sportsKeywords {
		if strings.Contains(text, keyword) {
			score += 0.2
		}
	}

	for _, keyword := range streamingKeywords {
		if strings.Contains(urlLower, keyword) {
			score += 0.2
		}
	}
	for _, keyword := range sportsKeywords {
		if strings.Contains(urlLower, keyword) {
			score += 0.15
		}
	}

	for _, indicator := range []string{"live", "stream", "watch"} {
		if strings.Contains(urlLower, indicator) {
			score += 0.1
			break
		}
	}

	for _, indicator := range negativeKeywords {
		if strings.Contains(urlLower, indicator) || strings.Contains(text, indicator) {
			score -= 0.5
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
