// Package verifier implements the technical admission check: a
// reachability probe, a content analysis of title and meta description,
// and a DOM fingerprint, combined into a composite score on [0, 100].
package verifier

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/models"
)

const richBonusCap = 35

// Fetcher provides the retrieval surface the verifier needs
type Fetcher interface {
	FetchPage(ctx context.Context, url string) models.FetchResult
}

// Service runs the composite verification
type Service struct {
	fetcher   Fetcher
	threshold int
	logger    arbor.ILogger
}

// NewService creates a verifier with the configured admission threshold
func NewService(fetcher Fetcher, threshold int, logger arbor.ILogger) *Service {
	if threshold <= 0 {
		threshold = 50
	}
	return &Service{fetcher: fetcher, threshold: threshold, logger: logger}
}

// Threshold returns the admission threshold in use
func (s *Service) Threshold() int {
	return s.threshold
}

// Verify fetches the URL and scores it. An unreachable URL short-circuits
// with composite 0; no further probes run.
func (s *Service) Verify(ctx context.Context, url string) models.Verification {
	result := s.fetcher.FetchPage(ctx, url)
	probe := models.ProbeResult{
		OK:         result.OK,
		StatusCode: result.StatusCode,
		Latency:    result.Elapsed,
		FinalURL:   result.FinalURL,
		Err:        result.Err,
	}

	if !result.OK {
		s.logger.Debug().Str("url", url).Str("error", result.Err).Msg("V2 verification unreachable")
		return models.Verification{
			URL:       url,
			Passed:    false,
			Composite: 0,
			Probe:     probe,
			Timestamp: time.Now(),
		}
	}

	return s.Score(url, result.Body, probe)
}

// Score computes the composite from an already-fetched body. The sweep
// uses this to re-verify quarantined rows without a second fetch.
func (s *Service) Score(url, body string, probe models.ProbeResult) models.Verification {
	content := analyzeContent(body)
	dom := fingerprintDOM(body)

	composite := 10 +
		int(0.25*float64(content.score)) +
		int(0.65*float64(dom.score)) +
		richBonus(content, dom)
	if composite > 100 {
		composite = 100
	}
	if composite < 0 {
		composite = 0
	}

	indicators := append(content.indicators, dom.indicators...)
	verification := models.Verification{
		URL:          url,
		Passed:       composite >= s.threshold,
		Composite:    composite,
		Probe:        probe,
		ContentScore: content.score,
		DOMScore:     dom.score,
		Indicators:   indicators,
		Timestamp:    time.Now(),
	}

	s.logger.Info().
		Str("url", url).
		Int("composite", composite).
		Int("content", content.score).
		Int("dom", dom.score).
		Bool("passed", verification.Passed).
		Msg("V2 verification scored")

	return verification
}

// richBonus rewards pages where independent signals agree. Capped at 35
// so the composite stays dominated by the DOM fingerprint.
func richBonus(content, dom probeScore) int {
	bonus := 0
	if dom.has("video_tags") && dom.has("streaming_iframe") {
		bonus += 15
	}
	if content.score >= 50 {
		bonus += 10
	}
	if len(content.indicators)+len(dom.indicators) >= 6 {
		bonus += 10
	}
	if bonus > richBonusCap {
		bonus = richBonusCap
	}
	return bonus
}
