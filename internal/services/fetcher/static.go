package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/models"
)

const maxBodySize = 4 * 1024 * 1024

// StaticFetcher performs plain HTTP retrieval with a realistic user agent.
// Network failures and bad statuses are data, not errors.
type StaticFetcher struct {
	client    *http.Client
	userAgent string
	logger    arbor.ILogger
}

// NewStaticFetcher creates a static fetcher with the given timeout
func NewStaticFetcher(timeout time.Duration, userAgent string, logger arbor.ILogger) *StaticFetcher {
	return &StaticFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch retrieves a URL with GET, following redirects
func (f *StaticFetcher) Fetch(ctx context.Context, url string) models.FetchResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.FetchResult{FinalURL: url, Elapsed: time.Since(start), Err: err.Error()}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return models.FetchResult{FinalURL: url, Elapsed: time.Since(start), Err: err.Error()}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	result := models.FetchResult{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Elapsed:    time.Since(start),
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 400,
	}
	if readErr != nil {
		result.OK = false
		result.Err = readErr.Error()
	} else if !result.OK {
		result.Err = resp.Status
	}
	return result
}

// Head probes a URL with HEAD and returns only reachability information
func (f *StaticFetcher) Head(ctx context.Context, url string) models.ProbeResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return models.ProbeResult{FinalURL: url, Err: err.Error()}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return models.ProbeResult{FinalURL: url, Latency: time.Since(start), Err: err.Error()}
	}
	defer resp.Body.Close()

	return models.ProbeResult{
		OK:         resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
		FinalURL:   resp.Request.URL.String(),
	}
}
