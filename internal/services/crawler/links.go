package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/sideline/internal/services/relevance"
)

// ScoredLink is an extracted anchor with its relevance score
type ScoredLink struct {
	URL    string
	Anchor string
	Score  float64
}

// extractLinks pulls up to limit anchors from a page and scores each one.
// Every returned link is absolute http(s); fragments and mailto-style
// schemes are dropped.
func extractLinks(body, pageURL string, limit int) []ScoredLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var links []ScoredLink
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return true
		}
		if !parsed.IsAbs() {
			if base == nil {
				return true
			}
			parsed = base.ResolveReference(parsed)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return true
		}

		absolute := parsed.String()
		if seen[absolute] {
			return true
		}
		seen[absolute] = true

		anchor := strings.TrimSpace(sel.Text())
		links = append(links, ScoredLink{
			URL:    absolute,
			Anchor: anchor,
			Score:  relevance.Score(anchor, absolute),
		})
		return len(links) < limit
	})

	return links
}
