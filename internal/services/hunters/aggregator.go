// Package hunters implements the discovery strategies that feed the cycle
// with candidate URLs. Each hunter is failure-isolated: one failing source
// costs its candidates, never the cycle.
package hunters

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/models"
)

const aggregatorBonusCap = 20

// Host substrings that mark a link as potentially streaming-related
var streamingHostKeywords = []string{
	"stream", "watch", "movie", "tv", "sport", "live",
	"free", "online", "hd", "east", "surge", "cast",
}

// Hosts that match the keywords above but are never catalog material
var excludedHostDomains = []string{
	"google.com", "facebook.com", "twitter.com", "youtube.com",
	"reddit.com", "github.com", "discord.com", "telegram.org",
	"wikipedia.org", "instagram.com",
}

var positiveSignalWords = []string{"working", "best", "verified", "recommended", "updated", "trusted"}

// Matches "123 upvotes", "45 points", "(312)" style community scores
var upvotePattern = regexp.MustCompile(`(\d{1,6})\s*(?:upvotes?|points?|votes?)|\((\d{1,6})\)`)

// PageFetcher retrieves one page statically; the aggregator never renders
type PageFetcher interface {
	FetchStatic(ctx context.Context, url string) models.FetchResult
}

// Aggregator scrapes curated index pages for outbound streaming links
type Aggregator struct {
	fetcher PageFetcher
	urls    []string
	logger  arbor.ILogger
}

// NewAggregator creates the aggregator hunter over the configured index pages
func NewAggregator(fetcher PageFetcher, urls []string, logger arbor.ILogger) *Aggregator {
	return &Aggregator{fetcher: fetcher, urls: urls, logger: logger}
}

// Name identifies the hunter in logs and candidate records
func (a *Aggregator) Name() string {
	return string(models.SourceAggregator)
}

// Hunt scrapes every configured index page. A page that fails to fetch or
// parse is logged and skipped.
func (a *Aggregator) Hunt(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	seen := make(map[string]bool)

	for _, pageURL := range a.urls {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}

		result := a.fetcher.FetchStatic(ctx, pageURL)
		if !result.OK {
			a.logger.Warn().Str("url", pageURL).Str("error", result.Err).Msg("Aggregator page fetch failed")
			continue
		}

		found := extractCandidates(result.Body, pageURL)
		for _, candidate := range found {
			if seen[candidate.URL] {
				continue
			}
			seen[candidate.URL] = true
			candidates = append(candidates, candidate)
		}
		a.logger.Info().Str("url", pageURL).Int("candidates", len(found)).Msg("Aggregator page scraped")
	}

	return candidates, nil
}

func extractCandidates(htmlContent, pageURL string) []models.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(pageURL)
	var candidates []models.Candidate

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		resolved := resolveHref(base, href)
		if resolved == nil || resolved.Host == "" {
			return
		}

		host := strings.ToLower(resolved.Host)
		if !containsAny(host, streamingHostKeywords) || containsAny(host, excludedHostDomains) {
			return
		}

		candidates = append(candidates, models.Candidate{
			URL:        resolved.String(),
			Source:     models.SourceAggregator,
			PriorBonus: communityBonus(sel),
		})
	})

	return candidates
}

func resolveHref(base *url.URL, href string) *url.URL {
	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		if base == nil {
			return nil
		}
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil
	}
	return parsed
}

// communityBonus walks up to three ancestors of the anchor and scores the
// surrounding text for upvote counts and positive-signal words.
func communityBonus(anchor *goquery.Selection) int {
	bonus := 0
	node := anchor
	for depth := 0; depth < 3; depth++ {
		parent := node.Parent()
		if parent.Length() == 0 {
			break
		}
		node = parent
	}
	text := strings.ToLower(node.Text())

	if matches := upvotePattern.FindStringSubmatch(text); matches != nil {
		raw := matches[1]
		if raw == "" {
			raw = matches[2]
		}
		if count, err := strconv.Atoi(raw); err == nil {
			switch {
			case count >= 100:
				bonus += 10
			case count >= 10:
				bonus += 5
			case count > 0:
				bonus += 2
			}
		}
	}

	for _, word := range positiveSignalWords {
		if strings.Contains(text, word) {
			bonus += 5
		}
	}

	if bonus > aggregatorBonusCap {
		bonus = aggregatorBonusCap
	}
	return bonus
}

func containsAny(text string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}
