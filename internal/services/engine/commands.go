package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/models"
)

// Caps for the abbreviated test cycle
const (
	testMaxPages     = 10
	testCycleTimeout = 2 * time.Minute
)

// Test runs the component preflight and then an abbreviated discovery
// cycle with reduced page and time caps. Used before unattended runs;
// the command fails if a hard dependency is down or the cycle aborts.
func (e *Engine) Test(ctx context.Context) error {
	if err := e.preflight(ctx); err != nil {
		return err
	}

	maxPages := e.config.Crawler.MaxPages
	if maxPages > testMaxPages {
		maxPages = testMaxPages
	}
	timeout := common.ParseDurationOr(e.config.Crawler.CycleTimeout, testCycleTimeout)
	if timeout <= 0 || timeout > testCycleTimeout {
		timeout = testCycleTimeout
	}

	e.logger.Info().Int("max_pages", maxPages).Str("timeout", timeout.String()).Msg("Running abbreviated test cycle")
	report, err := e.runCycle(ctx, maxPages, timeout)
	if err != nil {
		return fmt.Errorf("test cycle failed: %w", err)
	}
	e.logger.Info().
		Int("pages_crawled", report.Summary.PagesCrawled).
		Int("new_sites", report.Discovery.NewSitesFound).
		Msg("Test cycle completed")
	return nil
}

// preflight checks each component independently; only hard dependencies
// (catalog, network) fail the command.
func (e *Engine) preflight(ctx context.Context) error {
	failures := 0

	if _, err := e.storage.Status(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Catalog store check failed")
		failures++
	} else {
		e.logger.Info().Msg("Catalog store check passed")
	}

	if e.classifier.Available() {
		e.logger.Info().Msg("Classifier model check passed")
	} else {
		e.logger.Warn().Msg("Classifier model missing, statistical gate will reject everything")
	}

	if e.analyzer.Available() {
		e.logger.Info().Msg("Completion provider check passed")
	} else {
		e.logger.Warn().Msg("Completion provider unavailable, cognitive stages degrade")
	}

	if e.fetcher.RenderedAvailable() {
		e.logger.Info().Msg("Headless browser check passed")
	} else {
		e.logger.Warn().Msg("Headless browser unavailable, fetches run static only")
	}

	probe := e.fetcher.Head(ctx, e.config.Search.Endpoint)
	if probe.OK {
		e.logger.Info().Int("status", probe.StatusCode).Msg("Network reachability check passed")
	} else {
		e.logger.Error().Str("error", probe.Err).Msg("Network reachability check failed")
		failures++
	}

	if failures > 0 {
		return fmt.Errorf("%d component check(s) failed", failures)
	}
	return nil
}

// Train shells out to the configured training pipeline, which rebuilds
// the classifier artifact from labeled data.
func (e *Engine) Train(ctx context.Context) error {
	command := strings.TrimSpace(e.config.Engine.TrainCommand)
	if command == "" {
		return fmt.Errorf("no train_command configured")
	}

	parts := strings.Fields(command)
	e.logger.Info().Str("command", command).Msg("Running training pipeline")

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("training pipeline failed: %w", err)
	}

	e.logger.Info().Str("model_path", e.config.Classifier.ModelPath).Msg("Training pipeline finished")
	return nil
}

// Serve runs cycles on the configured cron schedule until interrupted
func (e *Engine) Serve(ctx context.Context) error {
	schedule := e.config.Engine.Schedule
	if schedule == "" {
		schedule = "@every 6h"
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, func() {
		if _, err := e.RunCycle(ctx); err != nil {
			e.logger.Error().Err(err).Msg("Scheduled cycle failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	e.logger.Info().Str("schedule", schedule).Msg("Serve mode started")
	scheduler.Start()
	defer scheduler.Stop()

	// Run one cycle immediately rather than waiting for the first tick
	if _, err := e.RunCycle(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Initial cycle failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		e.logger.Info().Str("signal", sig.String()).Msg("Serve mode stopping")
	case <-ctx.Done():
	}
	return nil
}

// Status prints a catalog summary to stdout
func (e *Engine) Status(ctx context.Context) error {
	status, err := e.storage.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog status: %w", err)
	}

	fmt.Printf("Catalog status at %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("  Total sites:       %d\n", status.TotalSites)
	fmt.Printf("  Active:            %d\n", status.ActiveSites)
	fmt.Printf("  Quarantined:       %d\n", status.QuarantinedSites)
	fmt.Printf("  Inactive:          %d\n", status.InactiveSites)
	fmt.Printf("  Added last hour:   %d\n", status.AddedLastHour)
	if !status.LastActivity.IsZero() {
		fmt.Printf("  Last activity:     %s\n", status.LastActivity.Format(time.RFC3339))
	}
	if len(status.SourceBreakdown) > 0 {
		fmt.Println("  By source:")
		for _, source := range []models.SiteSource{
			models.SourceAggregator, models.SourcePermutation, models.SourceSearchEngine,
			models.SourceCrawl, models.SourceGenesisSeed, models.SourceFallback,
		} {
			if count, ok := status.SourceBreakdown[string(source)]; ok {
				fmt.Printf("    %-14s %d\n", source, count)
			}
		}
	}
	return nil
}
