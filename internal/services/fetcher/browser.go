package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/models"
)

// Browser wraps a single shared chromedp browser context. One browser is
// shared per cycle; each rendered fetch opens and closes its own tab so
// page handles are released on every exit path.
type Browser struct {
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	mu              sync.Mutex
	initialized     bool
	userAgent       string
	quietPeriod     time.Duration
	logger          arbor.ILogger
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	UserAgent   string
	QuietPeriod time.Duration // Wait after load before capturing HTML
}

// NewBrowser creates an uninitialized browser wrapper
func NewBrowser(config BrowserConfig, logger arbor.ILogger) *Browser {
	return &Browser{
		userAgent:   config.UserAgent,
		quietPeriod: config.QuietPeriod,
		logger:      logger,
	}
}

// Init launches the headless browser and verifies it responds. Returns an
// error when no browser binary is available; callers degrade to static
// fetching in that case.
func (b *Browser) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.userAgent),
	)

	b.allocatorCtx, b.allocatorCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocatorCtx)

	testCtx, testCancel := context.WithTimeout(b.browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		b.browserCancel()
		b.allocatorCancel()
		b.browserCtx = nil
		return fmt.Errorf("browser failed startup test: %w", err)
	}

	b.initialized = true
	b.logger.Info().Str("user_agent", b.userAgent).Msg("Headless browser initialized")
	return nil
}

// Available reports whether the browser is running
func (b *Browser) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

// Fetch renders a URL in a fresh tab: navigate, wait for the load event
// plus a fixed quiet period, then capture the rendered HTML and final URL.
func (b *Browser) Fetch(ctx context.Context, url string, timeout time.Duration) models.FetchResult {
	b.mu.Lock()
	if !b.initialized {
		b.mu.Unlock()
		return models.FetchResult{FinalURL: url, Err: "browser not initialized"}
	}
	parent := b.browserCtx
	b.mu.Unlock()

	start := time.Now()

	tabCtx, tabCancel := chromedp.NewContext(parent)
	defer tabCancel() // Releases the page on every exit path

	runCtx, runCancel := context.WithTimeout(tabCtx, timeout)
	defer runCancel()

	// Propagate caller cancellation into the tab
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var html, finalURL string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(b.quietPeriod),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return models.FetchResult{FinalURL: url, Elapsed: time.Since(start), Rendered: true, Err: err.Error()}
	}

	return models.FetchResult{
		FinalURL: finalURL,
		// The CDP path exposes no status code; a rendered document implies success
		StatusCode: 200,
		Body:       html,
		Elapsed:    time.Since(start),
		Rendered:   true,
		OK:         true,
	}
}

// Close shuts the browser down
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	b.browserCancel()
	b.allocatorCancel()
	b.initialized = false
	b.logger.Info().Msg("Headless browser shut down")
}
