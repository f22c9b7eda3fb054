package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
	"github.com/ternarybob/sideline/internal/services/crawler"
)

// Reporter builds the after-action report at cycle end and persists it
// for the next cycle's planner. Metrics come from two places: counters
// matched against the cycle's contractual log lines, and catalog totals.
type Reporter struct {
	storage    interfaces.CatalogStorage
	reportsDir string
	logger     arbor.ILogger
}

// NewReporter creates a reporter writing to reportsDir
func NewReporter(storage interfaces.CatalogStorage, reportsDir string, logger arbor.ILogger) *Reporter {
	return &Reporter{storage: storage, reportsDir: reportsDir, logger: logger}
}

// Generate assembles the report for a finished cycle
func (r *Reporter) Generate(ctx context.Context, plan models.MissionPlan, stats crawler.Stats, cycleLog *common.CycleLog, duration time.Duration) models.AfterActionReport {
	classifierVerdicts := cycleLog.Count("classifier's verdict")
	classifierPositives := cycleLog.Count("(POSITIVE)")
	verifierRuns := cycleLog.Count("V2 verification")
	verifierPassed := cycleLog.Count("passed=true")
	writes := cycleLog.Count("successfully written to database")

	report := models.AfterActionReport{
		ReportType: "after_action",
		Timestamp:  time.Now(),
		CycleID:    uuid.NewString(),
		Summary: models.MissionSummary{
			Duration:       duration,
			PagesCrawled:   stats.PagesCrawled,
			LinksEvaluated: stats.LinksEvaluated,
		},
		Discovery: models.DiscoveryResults{
			NewSitesFound:    stats.NewSitesFound,
			SitesQuarantined: stats.SitesQuarantined,
		},
		Performance: models.PerformanceAnalysis{
			ClassifierSuccessRate: rate(classifierPositives, classifierVerdicts),
			VerifierSuccessRate:   rate(verifierPassed, verifierRuns),
			MostEffectiveSource:   mostEffectiveSource(stats.AdmissionsBySource),
			AvgSitesPerQuery:      rate(stats.NewSitesFound, len(plan.SeedQueries)),
		},
	}

	if status, err := r.storage.Status(ctx); err == nil {
		report.Discovery.TotalActiveSites = status.ActiveSites
	} else {
		r.logger.Warn().Err(err).Msg("Catalog status unavailable for report")
	}

	report.Reasoning = buildReasoning(report, stats, writes)

	r.logger.Info().
		Int("new_sites", report.Discovery.NewSitesFound).
		Int("pages_crawled", report.Summary.PagesCrawled).
		Str("recommendation", report.Reasoning.PrimaryRecommendation).
		Msg("After-action report generated")
	return report
}

// Persist writes a report to a timestamped file in the reports directory
func (r *Reporter) Persist(report models.AfterActionReport) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	filename := fmt.Sprintf("report_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(r.reportsDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	r.logger.Info().Str("path", path).Msg("After-action report persisted")
	return path, nil
}

// Latest returns the most recently modified report, or nil when none
// exists yet. A corrupt latest file is skipped, not fatal.
func (r *Reporter) Latest() *models.AfterActionReport {
	entries, err := os.ReadDir(r.reportsDir)
	if err != nil {
		return nil
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(r.reportsDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	for _, c := range candidates {
		data, err := os.ReadFile(c.path)
		if err != nil {
			continue
		}
		var report models.AfterActionReport
		if err := json.Unmarshal(data, &report); err != nil {
			r.logger.Warn().Str("path", c.path).Err(err).Msg("Skipping unreadable report")
			continue
		}
		return &report
	}
	return nil
}

// buildReasoning derives the observation, insight, and recommendation
// section from the cycle's numbers. Purely heuristic: the reporter never
// acts, it only advises the next planner.
func buildReasoning(report models.AfterActionReport, stats crawler.Stats, writes int) models.CognitiveReasoning {
	var reasoning models.CognitiveReasoning

	reasoning.Observations = []string{
		fmt.Sprintf("Crawled %d pages and evaluated %d links", report.Summary.PagesCrawled, report.Summary.LinksEvaluated),
		fmt.Sprintf("Discovered %d new sites; %d catalog writes recorded", report.Discovery.NewSitesFound, writes),
		fmt.Sprintf("Classifier positive rate %.0f%%, verifier pass rate %.0f%%",
			report.Performance.ClassifierSuccessRate*100, report.Performance.VerifierSuccessRate*100),
	}

	switch {
	case report.Discovery.NewSitesFound == 0 && report.Summary.PagesCrawled == 0:
		reasoning.Insights = append(reasoning.Insights, "No pages were reachable; discovery sources produced nothing usable this cycle")
		reasoning.PrimaryRecommendation = "Pivot: change the seed query angle and re-check hunter source availability"
	case report.Discovery.NewSitesFound == 0:
		reasoning.Insights = append(reasoning.Insights, "Pages were crawled but nothing cleared the admission funnel")
		reasoning.PrimaryRecommendation = "Pivot: current queries surface low-quality candidates; try community and aggregator focused queries"
	case report.Performance.VerifierSuccessRate < 0.2 && stats.VerifierRuns > 5:
		reasoning.Insights = append(reasoning.Insights, "Classifier admits candidates the verifier rejects; the funnel is misaligned")
		reasoning.PrimaryRecommendation = "Continue discovery but consider retraining the classifier on recent rejections"
	default:
		reasoning.Insights = append(reasoning.Insights, "The discovery funnel is producing admissions at a sustainable rate")
		reasoning.PrimaryRecommendation = "Continue: maintain the current query strategy with minor variations"
	}

	if report.Discovery.SitesQuarantined > report.Discovery.NewSitesFound && report.Discovery.SitesQuarantined > 0 {
		reasoning.SecondaryRecommendations = append(reasoning.SecondaryRecommendations,
			"Catalog is shrinking: quarantines outpaced discoveries this cycle")
	}
	if source := report.Performance.MostEffectiveSource; source != "" {
		reasoning.SecondaryRecommendations = append(reasoning.SecondaryRecommendations,
			fmt.Sprintf("Weight future discovery toward the %s source", source))
	}

	reasoning.ReasoningConfidence = 60
	if report.Summary.PagesCrawled > 20 {
		reasoning.ReasoningConfidence = 75
	}
	return reasoning
}

func mostEffectiveSource(bySource map[string]int) string {
	best := ""
	bestCount := 0
	for source, count := range bySource {
		if count > bestCount || (count == bestCount && source < best) {
			best = source
			bestCount = count
		}
	}
	return best
}

func rate(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
