// Package crawler implements the focused crawl: a worker pool draining a
// relevance-ordered frontier, running each page through the admission
// funnel, and feeding admitted sites back into the frontier.
package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
)

// Fetcher retrieves pages, rendered when possible
type Fetcher interface {
	FetchPage(ctx context.Context, url string) models.FetchResult
}

// Classifier is the statistical gate
type Classifier interface {
	Available() bool
	Classify(vector map[string]float64) models.Classification
}

// Verifier is the technical admission check
type Verifier interface {
	Verify(ctx context.Context, url string) models.Verification
	Score(url, body string, probe models.ProbeResult) models.Verification
}

// Analyzer is the cognitive enrichment stage
type Analyzer interface {
	Available() bool
	Analyze(ctx context.Context, url, htmlContent string) models.Analysis
}

// FeatureExtractor turns a page into the classifier's input vector
type FeatureExtractor func(htmlContent, url string) map[string]float64

// Config holds crawl settings for one cycle
type Config struct {
	Workers               int
	MaxDepth              int
	MaxPages              int
	MaxLinksPerPage       int
	RelevancyThreshold    float64
	AIConfidenceThreshold float64
	StrictCognitive       bool
	EnableFeedback        bool
	PendingBufferLimit    int
	DeactivationWindow    time.Duration
	MaxFailedAttempts     int
}

// Stats accumulates cycle counters for the reporting agent
type Stats struct {
	PagesCrawled        int
	LinksEvaluated      int
	NewSitesFound       int
	SitesQuarantined    int
	SitesReactivated    int
	SitesDeactivated    int
	ClassifierRuns      int
	ClassifierPositives int
	VerifierRuns        int
	VerifierPassed      int
	AdmissionsBySource  map[string]int
}

// Service is the focused crawler
type Service struct {
	fetcher    Fetcher
	extract    FeatureExtractor
	classifier Classifier
	verifier   Verifier
	analyzer   Analyzer
	storage    interfaces.CatalogStorage
	writer     *pendingWriter
	config     Config
	cycleLog   *common.CycleLog
	logger     arbor.ILogger

	mu       sync.Mutex
	stats    Stats
	reseeded map[string]bool
	fatalErr error
}

// NewService wires the crawler from its stages
func NewService(
	fetcher Fetcher,
	extract FeatureExtractor,
	classifier Classifier,
	verifier Verifier,
	analyzer Analyzer,
	storage interfaces.CatalogStorage,
	config Config,
	cycleLog *common.CycleLog,
	logger arbor.ILogger,
) *Service {
	if config.Workers <= 0 {
		config.Workers = 5
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = 3
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 100
	}
	if config.MaxLinksPerPage <= 0 {
		config.MaxLinksPerPage = 10
	}
	if config.PendingBufferLimit <= 0 {
		config.PendingBufferLimit = 100
	}
	if config.MaxFailedAttempts <= 0 {
		config.MaxFailedAttempts = 3
	}
	return &Service{
		fetcher:    fetcher,
		extract:    extract,
		classifier: classifier,
		verifier:   verifier,
		analyzer:   analyzer,
		storage:    storage,
		writer:     newPendingWriter(storage, config.PendingBufferLimit, cycleLog, logger),
		config:     config,
		cycleLog:   cycleLog,
		logger:     logger,
		stats:      Stats{AdmissionsBySource: make(map[string]int)},
		reseeded:   make(map[string]bool),
	}
}

// Run drains the frontier with a worker pool. It returns when the frontier
// empties, the page cap is reached, the context expires, or the pending
// write buffer overflows (the only fatal condition).
func (s *Service) Run(ctx context.Context, frontier *Frontier) (Stats, error) {
	sem := make(chan struct{}, s.config.Workers)
	var wg sync.WaitGroup

	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	inflight := 0
	dispatched := 0

	// Wake the dispatcher when the deadline fires
	stopWake := context.AfterFunc(ctx, cond.Broadcast)
	defer stopWake()

	for {
		mu.Lock()
		for frontier.Len() == 0 && inflight > 0 && ctx.Err() == nil && s.fatal() == nil {
			cond.Wait()
		}
		if ctx.Err() != nil || s.fatal() != nil || (frontier.Len() == 0 && inflight == 0) || dispatched >= s.config.MaxPages {
			mu.Unlock()
			break
		}
		item := frontier.Pop()
		if item == nil {
			mu.Unlock()
			continue
		}
		inflight++
		dispatched++
		mu.Unlock()

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			inflight--
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(item *Item) {
			defer func() {
				<-sem
				mu.Lock()
				inflight--
				mu.Unlock()
				cond.Broadcast()
				wg.Done()
			}()
			s.processPage(ctx, frontier, item)
		}(item)
	}

	wg.Wait()
	s.writer.Flush(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, s.fatalErr
}

func (s *Service) fatal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatalErr
}

func (s *Service) setFatal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatalErr == nil {
		s.fatalErr = err
	}
}

// processPage runs the full per-URL pipeline: fetch, classify, verify,
// analyze, admit, link-extract. Stages run in order; any stage may reject
// without affecting link extraction.
func (s *Service) processPage(ctx context.Context, frontier *Frontier, item *Item) {
	if item.Depth > s.config.MaxDepth {
		return
	}

	s.record(fmt.Sprintf("New page being crawled: %s (depth %d)", item.URL, item.Depth))
	s.logger.Info().Str("url", item.URL).Int("depth", item.Depth).Msg("New page being crawled")
	s.bump(func(st *Stats) { st.PagesCrawled++ })

	result := s.fetcher.FetchPage(ctx, item.URL)
	if !result.OK {
		s.logger.Debug().Str("url", item.URL).Str("error", result.Err).Msg("Page fetch failed")
		return
	}

	admitted := s.runFunnel(ctx, item, result)

	if admitted && s.config.EnableFeedback && !item.Reseeded && s.markReseeded(item.URL) {
		frontier.ForcePush(&Item{
			URL:      item.URL,
			Depth:    0,
			Score:    1.0,
			Source:   item.Source,
			Reseeded: true,
		})
		s.logger.Debug().Str("url", item.URL).Msg("Admitted URL re-seeded at depth 0")
	}

	s.extractAndEnqueue(frontier, result.Body, item)
}

// runFunnel applies the classification, verification, and analysis stages
// and upserts on admission. Returns true when the page was admitted.
func (s *Service) runFunnel(ctx context.Context, item *Item, result models.FetchResult) bool {
	vector := s.extract(result.Body, item.URL)
	classification := s.classifier.Classify(vector)
	s.bump(func(st *Stats) {
		st.ClassifierRuns++
		if classification.IsPositive {
			st.ClassifierPositives++
		}
	})

	verdict := "(NEGATIVE)"
	if classification.IsPositive {
		verdict = "(POSITIVE)"
	}
	s.record(fmt.Sprintf("The classifier's verdict for %s is %s probability=%.3f tier=%s",
		item.URL, verdict, classification.Probability, classification.Tier))
	s.logger.Info().
		Str("url", item.URL).
		Str("verdict", verdict).
		Str("probability", fmt.Sprintf("%.3f", classification.Probability)).
		Msg("Classifier verdict recorded")

	if !classification.IsPositive {
		return false
	}

	probe := models.ProbeResult{
		OK:         true,
		StatusCode: result.StatusCode,
		Latency:    result.Elapsed,
		FinalURL:   result.FinalURL,
	}
	verification := s.verifier.Score(item.URL, result.Body, probe)
	s.bump(func(st *Stats) {
		st.VerifierRuns++
		if verification.Passed {
			st.VerifierPassed++
		}
	})
	s.record(fmt.Sprintf("V2 verification for %s composite=%d passed=%t",
		item.URL, verification.Composite, verification.Passed))

	if !verification.Passed {
		return false
	}

	analysis := s.analyzer.Analyze(ctx, item.URL, result.Body)
	if s.config.StrictCognitive && analysis.Err == "" && analysis.ParseError == "" && !analysis.IsStreamingSite {
		s.logger.Info().Str("url", item.URL).Msg("Cognitive veto under strict mode")
		return false
	}

	return s.admit(ctx, item, verification, analysis)
}

func (s *Service) admit(ctx context.Context, item *Item, verification models.Verification, analysis models.Analysis) bool {
	source := item.Source
	if source == "" {
		source = models.SourceCrawl
	}

	name := analysis.ServiceName
	if name == "" || name == "Unknown" {
		name = common.SiteNameFromURL(item.URL)
	}

	upsert := models.SiteUpsert{
		Name:            name,
		URL:             item.URL,
		Source:          source,
		ConfidenceScore: verification.Composite,
		Category:        analysis.PrimaryCategory,
		LLMReasoning:    analysis.Reasoning.Conclusion,
	}
	if analysis.Err == "" && analysis.ParseError == "" {
		verified := analysis.IsStreamingSite
		upsert.LLMVerified = &verified
	}

	outcome, written, err := s.writer.Write(ctx, upsert)
	if err != nil {
		s.setFatal(err)
		return false
	}

	if written {
		s.record(fmt.Sprintf("Site %s successfully written to database", item.URL))
		s.logger.Info().
			Str("url", item.URL).
			Str("source", string(source)).
			Int("confidence", verification.Composite).
			Bool("inserted", outcome.Inserted).
			Msg("Site successfully written to database")
	}

	s.bump(func(st *Stats) {
		if !written || outcome.Inserted {
			st.NewSitesFound++
		}
		st.AdmissionsBySource[string(source)]++
	})
	return true
}

// extractAndEnqueue runs on every fetched page regardless of the funnel
// outcome. Links below the relevance threshold or beyond max depth are
// evaluated but not followed.
func (s *Service) extractAndEnqueue(frontier *Frontier, body string, item *Item) {
	links := extractLinks(body, item.URL, s.config.MaxLinksPerPage)
	for _, link := range links {
		s.bump(func(st *Stats) { st.LinksEvaluated++ })
		s.record(fmt.Sprintf("Link being evaluated: %s score=%.2f", link.URL, link.Score))

		if link.Score < s.config.RelevancyThreshold {
			continue
		}
		if item.Depth+1 > s.config.MaxDepth {
			continue
		}
		if frontier.Push(&Item{
			URL:    link.URL,
			Depth:  item.Depth + 1,
			Score:  link.Score,
			Source: models.SourceCrawl,
		}) {
			s.logger.Debug().
				Str("url", link.URL).
				Str("score", fmt.Sprintf("%.2f", link.Score)).
				Int("depth", item.Depth+1).
				Msg("Link enqueued")
		}
	}
}

func (s *Service) markReseeded(url string) bool {
	key := common.CanonicalizeURL(url)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reseeded[key] {
		return false
	}
	s.reseeded[key] = true
	return true
}

func (s *Service) bump(fn func(*Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
}

func (s *Service) record(line string) {
	if s.cycleLog != nil {
		s.cycleLog.Append(line)
	}
}

// Stats returns a snapshot of the counters accumulated so far
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.stats
	snapshot.AdmissionsBySource = make(map[string]int, len(s.stats.AdmissionsBySource))
	for k, v := range s.stats.AdmissionsBySource {
		snapshot.AdmissionsBySource[k] = v
	}
	return snapshot
}

// SeedFrontier loads hunter candidates into a fresh frontier. Depth 0,
// relevance from the candidate's prior bonus so better-sourced URLs are
// visited first.
func (s *Service) SeedFrontier(candidates []models.Candidate) *Frontier {
	frontier := NewFrontier(common.CanonicalizeURL)
	for _, candidate := range candidates {
		frontier.Push(&Item{
			URL:    candidate.URL,
			Depth:  0,
			Score:  0.5 + float64(candidate.PriorBonus)/float64(models.MaxPriorBonus)*0.5,
			Source: candidate.Source,
			Bonus:  candidate.PriorBonus,
		})
	}
	s.logger.Info().Int("seeds", frontier.Len()).Msg("Frontier seeded from hunter candidates")
	return frontier
}
