// Package engine composes the discovery components and drives cycles:
// latest report, plan, sweep, hunt, crawl, report.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
	"github.com/ternarybob/sideline/internal/services/agents"
	"github.com/ternarybob/sideline/internal/services/analyzer"
	"github.com/ternarybob/sideline/internal/services/classifier"
	"github.com/ternarybob/sideline/internal/services/crawler"
	"github.com/ternarybob/sideline/internal/services/features"
	"github.com/ternarybob/sideline/internal/services/fetcher"
	"github.com/ternarybob/sideline/internal/services/hunters"
	"github.com/ternarybob/sideline/internal/services/llm"
	"github.com/ternarybob/sideline/internal/services/search"
	"github.com/ternarybob/sideline/internal/services/verifier"
)

// Engine owns the long-lived components and builds the per-cycle ones
type Engine struct {
	config     *common.Config
	storage    interfaces.CatalogStorage
	fetcher    *fetcher.Service
	classifier *classifier.Service
	verifier   *verifier.Service
	analyzer   *analyzer.Service
	planner    *agents.Planner
	reporter   *agents.Reporter
	searcher   interfaces.SearchProvider
	provider   interfaces.LLMProvider
	cycleLog   *common.CycleLog
	logger     arbor.ILogger
}

// New wires the engine from configuration and an opened catalog store
func New(config *common.Config, storage interfaces.CatalogStorage, logger arbor.ILogger) (*Engine, error) {
	fetchSvc := fetcher.NewService(fetcher.Config{
		UserAgent:     config.Crawler.UserAgent,
		StaticTimeout: time.Duration(config.Discovery.RequestTimeout) * time.Second,
		RenderTimeout: 10 * time.Second,
		QuietPeriod:   common.ParseDurationOr(config.Crawler.JavaScriptWaitTime, 2*time.Second),
		Overall:       config.Discovery.MaxConcurrentVerifications,
		PerHost:       config.Crawler.PerHostConcurrency,
		HostDelay:     500 * time.Millisecond,
		EnableBrowser: config.Crawler.EnableJavaScript,
	}, logger)

	provider, err := llm.NewProvider(config, logger)
	if err != nil {
		fetchSvc.Close()
		return nil, fmt.Errorf("failed to create completion provider: %w", err)
	}

	classifierSvc := classifier.NewService(config.Classifier.ModelPath, config.Crawler.AIConfidenceThreshold, logger)
	verifierSvc := verifier.NewService(fetchSvc, config.Discovery.VerificationConfidenceThreshold, logger)
	analyzerSvc := analyzer.NewService(provider, config.LLM.Model, config.LLM.MaxTokens, config.LLM.Temperature, logger)

	searcher := search.NewDuckDuckGo(search.Config{
		Endpoint:         config.Search.Endpoint,
		UserAgent:        config.Crawler.UserAgent,
		MinQueryInterval: common.ParseDurationOr(config.Search.MinQueryInterval, 3*time.Second),
		BackoffInterval:  common.ParseDurationOr(config.Search.BackoffInterval, 10*time.Second),
		MaxBackoff:       common.ParseDurationOr(config.Search.MaxBackoffInterval, 2*time.Minute),
	}, logger)

	return &Engine{
		config:     config,
		storage:    storage,
		fetcher:    fetchSvc,
		classifier: classifierSvc,
		verifier:   verifierSvc,
		analyzer:   analyzerSvc,
		planner:    agents.NewPlanner(provider, config.LLM.Model, config.LLM.MaxTokens, config.LLM.Temperature, logger),
		reporter:   agents.NewReporter(storage, config.Reports.Dir, logger),
		searcher:   searcher,
		provider:   provider,
		cycleLog:   common.NewCycleLog(),
		logger:     logger,
	}, nil
}

// RunCycle drives one full discovery cycle. Per-URL and per-hunter
// failures are absorbed; the returned error is reserved for fatal
// conditions such as a catalog write backlog.
func (e *Engine) RunCycle(ctx context.Context) (models.AfterActionReport, error) {
	return e.runCycle(ctx,
		e.config.Crawler.MaxPages,
		common.ParseDurationOr(e.config.Crawler.CycleTimeout, 0))
}

func (e *Engine) runCycle(ctx context.Context, maxPages int, timeout time.Duration) (models.AfterActionReport, error) {
	start := time.Now()
	e.cycleLog.Reset()
	e.logger.Info().Msg("Discovery cycle starting")

	previous := e.reporter.Latest()
	plan := e.planner.GeneratePlan(ctx, previous)
	e.logger.Info().
		Str("mission_type", string(plan.MissionType)).
		Int("seed_queries", len(plan.SeedQueries)).
		Msg("Mission plan ready")

	crawlSvc := e.newCrawler(maxPages)

	cycleCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sweep := crawlSvc.SweepQuarantine(cycleCtx)
	e.logger.Info().
		Int("checked", sweep.Checked).
		Int("reactivated", sweep.Reactivated).
		Msg("Quarantine sweep done")

	candidates := e.runHunters(cycleCtx, plan.SeedQueries)
	frontier := crawlSvc.SeedFrontier(candidates)

	stats, crawlErr := crawlSvc.Run(cycleCtx, frontier)
	if crawlErr != nil {
		e.logger.Error().Err(crawlErr).Msg("Crawl aborted")
	}

	report := e.reporter.Generate(ctx, plan, stats, e.cycleLog, time.Since(start))
	if _, err := e.reporter.Persist(report); err != nil {
		e.logger.Error().Err(err).Msg("Failed to persist after-action report")
	}

	e.logger.Info().
		Int("new_sites", report.Discovery.NewSitesFound).
		Int("pages_crawled", report.Summary.PagesCrawled).
		Str("duration", time.Since(start).String()).
		Msg("Discovery cycle finished")
	return report, crawlErr
}

func (e *Engine) newCrawler(maxPages int) *crawler.Service {
	return crawler.NewService(
		e.fetcher,
		features.Extract,
		e.classifier,
		e.verifier,
		e.analyzer,
		e.storage,
		crawler.Config{
			Workers:               e.config.Crawler.Workers,
			MaxDepth:              e.config.Crawler.MaxCrawlDepth,
			MaxPages:              maxPages,
			MaxLinksPerPage:       e.config.Crawler.MaxLinksPerPage,
			RelevancyThreshold:    e.config.Crawler.RelevancyThreshold,
			AIConfidenceThreshold: e.config.Crawler.AIConfidenceThreshold,
			StrictCognitive:       e.config.Crawler.StrictCognitive,
			EnableFeedback:        e.config.Crawler.EnableAutonomousFeedback,
			PendingBufferLimit:    e.config.Crawler.PendingBufferLimit,
			DeactivationWindow:    time.Duration(e.config.Maintenance.DeactivationHours) * time.Hour,
			MaxFailedAttempts:     e.config.Maintenance.MaxFailedAttempts,
		},
		e.cycleLog,
		e.logger,
	)
}

// runHunters executes the three discovery strategies with the cycle's
// queries and merges their candidates.
func (e *Engine) runHunters(ctx context.Context, queries []string) []models.Candidate {
	runner := hunters.NewRunner(e.logger,
		hunters.NewAggregator(e.fetcher, e.config.Operational.AggregatorURLs, e.logger),
		hunters.NewPermutation(e.fetcher, e.config.Operational.PermutationBases, e.config.Operational.PermutationTLDs, e.logger),
		hunters.NewSearch(e.searcher, queries, e.config.Search.MaxResults, e.logger),
	)
	return runner.Run(ctx)
}

// Close releases the engine's long-lived resources
func (e *Engine) Close() {
	e.fetcher.Close()
	if e.provider != nil {
		_ = e.provider.Close()
	}
}
