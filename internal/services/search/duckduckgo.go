// Package search queries the DuckDuckGo HTML endpoint and scrapes organic
// results. The endpoint needs no API key but is quick to block aggressive
// clients, so queries are paced and blocks trigger a cooldown.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/interfaces"
	"golang.org/x/time/rate"
)

// Config holds search provider settings
type Config struct {
	Endpoint         string
	UserAgent        string
	Timeout          time.Duration
	MinQueryInterval time.Duration // Floor between successive queries
	BackoffInterval  time.Duration // Initial cooldown after a block or 429
	MaxBackoff       time.Duration // Cooldown ceiling under repeated blocks
}

// DuckDuckGo implements interfaces.SearchProvider against the HTML endpoint
type DuckDuckGo struct {
	endpoint   string
	userAgent  string
	client     *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration
	maxBackoff time.Duration
	logger     arbor.ILogger

	mu          sync.Mutex
	blockUntil  time.Time
	blockStreak int
}

// NewDuckDuckGo creates the provider with pacing defaults applied
func NewDuckDuckGo(config Config, logger arbor.ILogger) *DuckDuckGo {
	if config.Endpoint == "" {
		config.Endpoint = "https://html.duckduckgo.com/html/"
	}
	if config.MinQueryInterval <= 0 {
		config.MinQueryInterval = 3 * time.Second
	}
	if config.BackoffInterval <= 0 {
		config.BackoffInterval = 10 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxBackoff < config.BackoffInterval {
		config.MaxBackoff = 8 * config.BackoffInterval
	}
	return &DuckDuckGo{
		endpoint:   config.Endpoint,
		userAgent:  config.UserAgent,
		client:     &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Every(config.MinQueryInterval), 1),
		backoff:    config.BackoffInterval,
		maxBackoff: config.MaxBackoff,
		logger:     logger,
	}
}

// Search runs one query and returns up to maxResults organic results in
// rank order. A block response sets a cooldown and returns an error; the
// caller treats a failed query as zero results, not a cycle abort.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]interfaces.SearchResult, error) {
	if wait := d.blockRemaining(); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		d.setBlocked()
		return nil, fmt.Errorf("search endpoint blocked the query with status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := parseResults(doc, maxResults)
	if len(results) == 0 && looksBlocked(doc) {
		d.setBlocked()
		return nil, fmt.Errorf("search endpoint served a challenge page")
	}

	d.resetBlock()
	d.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Search query completed")
	return results, nil
}

func parseResults(doc *goquery.Document, maxResults int) []interfaces.SearchResult {
	var results []interfaces.SearchResult
	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		resolved := resolveRedirect(href)
		if resolved == "" {
			return true
		}
		results = append(results, interfaces.SearchResult{
			URL:      resolved,
			Title:    strings.TrimSpace(link.Text()),
			Snippet:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			Position: len(results) + 1,
		})
		return len(results) < maxResults
	})
	return results
}

// resolveRedirect unwraps the uddg redirect parameter the HTML endpoint
// wraps result links in. Plain links pass through.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if unescaped, err := url.QueryUnescape(target); err == nil {
			return unescaped
		}
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}

func looksBlocked(doc *goquery.Document) bool {
	text := strings.ToLower(doc.Text())
	return strings.Contains(text, "detected unusual traffic") ||
		strings.Contains(text, "captcha") ||
		strings.Contains(text, "too many requests")
}

func (d *DuckDuckGo) blockRemaining() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return time.Until(d.blockUntil)
}

// setBlocked doubles the cooldown for each consecutive block, up to the
// configured ceiling. A successful query resets the streak.
func (d *DuckDuckGo) setBlocked() {
	d.mu.Lock()
	cooldown := d.backoff
	for i := 0; i < d.blockStreak && cooldown < d.maxBackoff; i++ {
		cooldown *= 2
	}
	if cooldown > d.maxBackoff {
		cooldown = d.maxBackoff
	}
	d.blockStreak++
	d.blockUntil = time.Now().Add(cooldown)
	d.mu.Unlock()
	d.logger.Warn().Dur("cooldown", cooldown).Msg("Search endpoint blocked the client, backing off")
}

func (d *DuckDuckGo) resetBlock() {
	d.mu.Lock()
	d.blockStreak = 0
	d.mu.Unlock()
}
