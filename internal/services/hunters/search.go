package hunters

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
)

const searchBonusCap = 25

var searchContentKeywords = []string{
	"stream", "live", "watch", "free", "sports", "nfl", "nba",
	"soccer", "football", "game", "online", "hd",
}

// Search turns planner queries into candidates through a search provider.
// The provider handles pacing; this hunter handles result triage.
type Search struct {
	provider   interfaces.SearchProvider
	queries    []string
	maxResults int
	logger     arbor.ILogger
}

// NewSearch creates the search-engine hunter for one cycle's query set
func NewSearch(provider interfaces.SearchProvider, queries []string, maxResults int, logger arbor.ILogger) *Search {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Search{provider: provider, queries: queries, maxResults: maxResults, logger: logger}
}

// Name identifies the hunter in logs and candidate records
func (s *Search) Name() string {
	return string(models.SourceSearchEngine)
}

// Hunt runs every query. A failed query contributes zero candidates and
// the remaining queries still run.
func (s *Search) Hunt(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	seen := make(map[string]bool)

	for _, query := range s.queries {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}

		results, err := s.provider.Search(ctx, query, s.maxResults)
		if err != nil {
			s.logger.Warn().Str("query", query).Err(err).Msg("Search query failed")
			continue
		}

		kept := 0
		for _, result := range results {
			if !looksLikeStreamingSite(result) {
				continue
			}
			if seen[result.URL] {
				continue
			}
			seen[result.URL] = true
			candidates = append(candidates, models.Candidate{
				URL:        result.URL,
				Source:     models.SourceSearchEngine,
				PriorBonus: searchBonus(result),
			})
			kept++
		}
		s.logger.Info().
			Str("query", query).
			Int("results", len(results)).
			Int("kept", kept).
			Msg("Search query triaged")
	}

	return candidates, nil
}

// looksLikeStreamingSite keeps results whose host carries a streaming
// keyword, or whose title and snippet carry at least two.
func looksLikeStreamingSite(result interfaces.SearchResult) bool {
	host := strings.ToLower(result.URL)
	if containsAny(host, excludedHostDomains) {
		return false
	}
	if containsAny(host, streamingHostKeywords) {
		return true
	}
	return keywordHits(result) >= 2
}

func keywordHits(result interfaces.SearchResult) int {
	text := strings.ToLower(result.Title + " " + result.Snippet)
	hits := 0
	for _, keyword := range searchContentKeywords {
		if strings.Contains(text, keyword) {
			hits++
		}
	}
	return hits
}

// searchBonus scores a result from its rank and keyword density.
// Rank contributes up to 10, density up to 15, total capped at 25.
func searchBonus(result interfaces.SearchResult) int {
	bonus := 0
	switch {
	case result.Position <= 1:
		bonus += 10
	case result.Position <= 3:
		bonus += 7
	case result.Position <= 5:
		bonus += 4
	default:
		bonus += 2
	}

	density := keywordHits(result) * 3
	if density > 15 {
		density = 15
	}
	bonus += density

	if bonus > searchBonusCap {
		bonus = searchBonusCap
	}
	return bonus
}
