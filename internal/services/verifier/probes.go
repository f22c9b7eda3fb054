package verifier

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type probeScore struct {
	score      int
	indicators []string
}

func (p probeScore) has(prefix string) bool {
	for _, indicator := range p.indicators {
		if strings.HasPrefix(indicator, prefix) {
			return true
		}
	}
	return false
}

func (p *probeScore) add(indicator string, weight int) {
	p.indicators = append(p.indicators, indicator)
	p.score += weight
}

// Weighted keywords for the title + meta-description analysis
var contentKeywords = []struct {
	keyword string
	weight  int
}{
	{"stream", 20}, {"watch", 20},
	{"live", 15}, {"movie", 15}, {"tv", 15}, {"sport", 15}, {"schedule", 15},
	{"free", 10}, {"online", 10}, {"video", 10}, {"player", 10},
	{"games", 10}, {"nfl", 10}, {"nba", 10}, {"soccer", 10}, {"football", 10},
	{"hd", 5},
}

var contentPatterns = []string{"live stream", "watch online", "free streaming", "watch free"}

// analyzeContent scores the page title and meta description. A page with
// no keyword hits scores 0 regardless of bonuses.
func analyzeContent(body string) probeScore {
	var result probeScore

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return result
	}

	title := doc.Find("title").First().Text()
	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	text := strings.ToLower(title + " " + description)
	if strings.TrimSpace(text) == "" {
		return result
	}

	for _, entry := range contentKeywords {
		if strings.Contains(text, entry.keyword) {
			result.add("keyword_"+entry.keyword, entry.weight)
		}
	}
	if result.score == 0 {
		return result
	}

	for _, pattern := range contentPatterns {
		if strings.Contains(text, pattern) {
			result.add("pattern_"+strings.ReplaceAll(pattern, " ", "_"), 10)
		}
	}
	if len(result.indicators) > 3 {
		result.score += 10
	}
	if result.score > 100 {
		result.score = 100
	}
	return result
}

var iframeSrcKeywords = []string{"player", "stream", "video", "embed"}
var scriptKeywords = []string{"jwplayer", "videojs", "video.js", "hls.js", "clappr", "flowplayer"}
var playerPlatforms = []string{"jwplayer", "video.js", "clappr", "flowplayer", "plyr"}
var streamingMetaKeywords = []string{"stream", "live", "watch", "sports"}

// fingerprintDOM scores structural streaming signals. It is the highest
// weighted sub-probe in the composite.
func fingerprintDOM(body string) probeScore {
	var result probeScore

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return result
	}

	if n := doc.Find("video").Length(); n > 0 {
		result.add("video_tags", 40)
	}

	iframes := doc.Find("iframe")
	if iframes.Length() > 0 {
		result.add("iframes", 35)
		streamingSrc := false
		iframes.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			src, _ := sel.Attr("src")
			if containsAny(strings.ToLower(src), iframeSrcKeywords) {
				streamingSrc = true
				return false
			}
			return true
		})
		if streamingSrc {
			result.add("streaming_iframe", 25)
		}
	}

	for _, name := range []string{"player", "video-player", "stream"} {
		if doc.Find("#"+name).Length() > 0 || doc.Find("."+name).Length() > 0 {
			result.add("streaming_element_"+name, 15)
		}
	}

	scriptText := strings.Builder{}
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		scriptText.WriteString(strings.ToLower(sel.Text()))
		if src, ok := sel.Attr("src"); ok {
			scriptText.WriteString(strings.ToLower(src))
		}
	})
	scripts := scriptText.String()
	if containsAny(scripts, scriptKeywords) {
		result.add("player_scripts", 20)
	}

	scheduled := false
	for _, name := range []string{"schedule", "games", "matches"} {
		if doc.Find("#"+name).Length() > 0 || doc.Find("."+name).Length() > 0 ||
			doc.Find(`table[class*="`+name+`"]`).Length() > 0 {
			scheduled = true
		}
	}
	if scheduled {
		result.add("scheduled_games", 25)
	}

	metaStreaming := false
	doc.Find(`meta[property], meta[name]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		content, _ := sel.Attr("content")
		if containsAny(strings.ToLower(content), streamingMetaKeywords) {
			metaStreaming = true
			return false
		}
		return true
	})
	if metaStreaming {
		result.add("streaming_meta", 15)
	}

	bodyLower := strings.ToLower(body)
	for _, platform := range playerPlatforms {
		if strings.Contains(bodyLower, platform) {
			result.add("player_platform", 10)
			break
		}
	}

	if result.score > 100 {
		result.score = 100
	}
	return result
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
