// Package features turns rendered HTML and a URL into the fixed-schema
// numeric vector the statistical classifier consumes. The feature set and
// its ordering are frozen alongside the trained model artifact; adding a
// feature requires retraining.
package features

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SportsKeywords is the fixed keyword set for content density features
var SportsKeywords = []string{
	"live", "stream", "watch", "nfl", "nba", "nhl", "mlb", "soccer",
	"football", "basketball", "hockey", "baseball", "sports", "game",
	"match", "playoff", "championship", "league", "team", "score",
	"highlights", "replay", "broadcast", "free", "online", "tv",
	"channel", "video", "player", "espn", "fox", "cbs", "nbc",
}

var streamingIndicators = []string{
	"video", "player", "stream", "embed", "iframe", "jwplayer",
	"videojs", "hls", "m3u8", "rtmp", "dash", "mp4",
}

var baseFeatures = []string{
	"has_video_tag", "has_iframe", "iframe_count", "has_embed", "has_object",
	"has_jwplayer", "has_videojs", "has_hls_reference", "has_streaming_js",
	"total_sports_keyword_density",
	"link_count", "external_link_count", "dom_depth", "title_length",
	"url_has_sports_keyword", "url_has_stream_keyword", "domain_length", "path_depth",
	"html_size", "text_to_html_ratio", "script_count", "css_count",
	"meta_has_sports", "title_has_sports", "title_has_stream",
}

// Schema returns the stable, ordered feature name list
func Schema() []string {
	names := make([]string, 0, len(baseFeatures)+len(SportsKeywords))
	names = append(names, baseFeatures...)
	for _, keyword := range SportsKeywords {
		names = append(names, "keyword_density_"+keyword)
	}
	return names
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Extract computes the feature vector for a page. An empty or unparseable
// body yields the zero vector rather than an error.
func Extract(htmlContent, pageURL string) map[string]float64 {
	vector := make(map[string]float64, len(baseFeatures)+len(SportsKeywords))
	for _, name := range Schema() {
		vector[name] = 0
	}

	urlLower := strings.ToLower(pageURL)
	if parsed, err := url.Parse(pageURL); err == nil {
		vector["domain_length"] = float64(len(parsed.Host))
		depth := 0
		for _, segment := range strings.Split(parsed.Path, "/") {
			if segment != "" {
				depth++
			}
		}
		vector["path_depth"] = float64(depth)
	}
	vector["url_has_sports_keyword"] = boolFeature(containsAny(urlLower, SportsKeywords))
	vector["url_has_stream_keyword"] = boolFeature(containsAny(urlLower, []string{"stream", "live", "watch", "tv"}))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil || htmlContent == "" {
		return vector
	}

	text := strings.ToLower(doc.Text())
	totalWords := len(strings.Fields(text))

	// Technical features
	vector["has_video_tag"] = boolFeature(doc.Find("video").Length() > 0)
	iframeCount := doc.Find("iframe").Length()
	vector["has_iframe"] = boolFeature(iframeCount > 0)
	vector["iframe_count"] = float64(iframeCount)
	vector["has_embed"] = boolFeature(doc.Find("embed").Length() > 0)
	vector["has_object"] = boolFeature(doc.Find("object").Length() > 0)

	vector["has_jwplayer"] = boolFeature(strings.Contains(text, "jwplayer"))
	vector["has_videojs"] = boolFeature(strings.Contains(text, "video.js") || strings.Contains(text, "videojs"))
	vector["has_hls_reference"] = boolFeature(strings.Contains(text, "m3u8") || strings.Contains(text, "hls"))
	vector["has_streaming_js"] = boolFeature(containsAny(text, streamingIndicators))

	// Content density features
	totalSportsHits := 0
	for _, keyword := range SportsKeywords {
		count := strings.Count(text, keyword)
		totalSportsHits += count
		if totalWords > 0 {
			vector["keyword_density_"+keyword] = float64(count) / float64(totalWords)
		}
	}
	vector["total_sports_keyword_density"] = float64(totalSportsHits) / float64(max(totalWords, 1))

	// Structural features
	vector["link_count"] = float64(doc.Find("a").Length())
	vector["external_link_count"] = float64(countExternalLinks(doc, pageURL))
	vector["dom_depth"] = float64(domDepth(doc.Selection, 0))
	vector["html_size"] = float64(len(htmlContent))
	vector["text_to_html_ratio"] = float64(len(text)) / float64(max(len(htmlContent), 1))
	vector["script_count"] = float64(doc.Find("script").Length())
	vector["css_count"] = float64(doc.Find("style").Length() + doc.Find(`link[rel="stylesheet"]`).Length())

	// Meta features
	title := strings.ToLower(doc.Find("title").First().Text())
	vector["title_length"] = float64(len(title))
	vector["title_has_sports"] = boolFeature(containsAny(title, SportsKeywords))
	vector["title_has_stream"] = boolFeature(containsAny(title, []string{"stream", "live", "watch"}))

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		vector["meta_has_sports"] = boolFeature(containsAny(strings.ToLower(desc), SportsKeywords))
	}

	return vector
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func countExternalLinks(doc *goquery.Document, pageURL string) int {
	current, err := url.Parse(pageURL)
	if err != nil {
		return 0
	}
	count := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return
		}
		if linked, err := url.Parse(href); err == nil && linked.Host != current.Host {
			count++
		}
	})
	return count
}

func domDepth(sel *goquery.Selection, depth int) int {
	deepest := depth
	sel.Children().Each(func(_ int, child *goquery.Selection) {
		if d := domDepth(child, depth+1); d > deepest {
			deepest = d
		}
	})
	return deepest
}
