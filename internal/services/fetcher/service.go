package fetcher

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/models"
)

// Service combines static and rendered retrieval behind one surface. The
// rendered path is preferred when a browser is running; on failure the
// static path is the fallback and the result's Rendered flag tells the
// caller which mode produced the content.
type Service struct {
	static        *StaticFetcher
	browser       *Browser
	limiter       *HostLimiter
	staticTimeout time.Duration
	renderTimeout time.Duration
	logger        arbor.ILogger
}

// Config holds fetcher service settings
type Config struct {
	UserAgent     string
	StaticTimeout time.Duration
	RenderTimeout time.Duration
	QuietPeriod   time.Duration
	Overall       int
	PerHost       int
	HostDelay     time.Duration
	EnableBrowser bool
}

// NewService creates the fetcher service. When EnableBrowser is set the
// headless browser is launched lazily on the first rendered fetch.
func NewService(config Config, logger arbor.ILogger) *Service {
	s := &Service{
		static:        NewStaticFetcher(config.StaticTimeout, config.UserAgent, logger),
		limiter:       NewHostLimiter(config.Overall, config.PerHost, config.HostDelay),
		staticTimeout: config.StaticTimeout,
		renderTimeout: config.RenderTimeout,
		logger:        logger,
	}
	if config.EnableBrowser {
		s.browser = NewBrowser(BrowserConfig{
			UserAgent:   config.UserAgent,
			QuietPeriod: config.QuietPeriod,
		}, logger)
		if err := s.browser.Init(); err != nil {
			logger.Warn().Err(err).Msg("Headless browser unavailable, rendered fetches degrade to static")
			s.browser = nil
		}
	}
	return s
}

// FetchPage retrieves a page, rendered when possible. Concurrency and
// same-host pacing limits apply.
func (s *Service) FetchPage(ctx context.Context, url string) models.FetchResult {
	release, err := s.limiter.Acquire(ctx, url)
	if err != nil {
		return models.FetchResult{FinalURL: url, Err: err.Error()}
	}
	defer release()

	if s.browser != nil && s.browser.Available() {
		result := s.browser.Fetch(ctx, url, s.renderTimeout)
		if result.OK {
			return result
		}
		s.logger.Debug().Str("url", url).Str("error", result.Err).Msg("Rendered fetch failed, falling back to static")
	}

	return s.static.Fetch(ctx, url)
}

// FetchStatic retrieves a page over plain HTTP regardless of browser state
func (s *Service) FetchStatic(ctx context.Context, url string) models.FetchResult {
	release, err := s.limiter.Acquire(ctx, url)
	if err != nil {
		return models.FetchResult{FinalURL: url, Err: err.Error()}
	}
	defer release()

	return s.static.Fetch(ctx, url)
}

// Head probes reachability without a body
func (s *Service) Head(ctx context.Context, url string) models.ProbeResult {
	release, err := s.limiter.Acquire(ctx, url)
	if err != nil {
		return models.ProbeResult{FinalURL: url, Err: err.Error()}
	}
	defer release()

	return s.static.Head(ctx, url)
}

// RenderedAvailable reports whether the headless browser is usable
func (s *Service) RenderedAvailable() bool {
	return s.browser != nil && s.browser.Available()
}

// Close releases the browser if one is running
func (s *Service) Close() {
	if s.browser != nil {
		s.browser.Close()
	}
}
