package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/models"
)

func newTestCrawler(fetcher *stubFetcher, storage *fakeStorage, config Config, cycleLog *common.CycleLog) *Service {
	return NewService(
		fetcher,
		markerExtract,
		stubClassifier{},
		stubVerifier{},
		stubAnalyzer{available: true},
		storage,
		config,
		cycleLog,
		common.GetLogger(),
	)
}

func TestRunAdmitsQualifyingPage(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]models.FetchResult{
		"https://streameast.app": {
			OK: true, StatusCode: 200,
			Body: `<html><body>marker-positive marker-verified marker-streaming</body></html>`,
		},
	}}
	storage := newFakeStorage()
	cycleLog := common.NewCycleLog()
	service := newTestCrawler(fetcher, storage, Config{Workers: 2, RelevancyThreshold: 0.6}, cycleLog)

	frontier := service.SeedFrontier([]models.Candidate{
		{URL: "https://streameast.app", Source: models.SourceAggregator, PriorBonus: 10},
	})
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PagesCrawled)
	assert.Equal(t, 1, stats.ClassifierRuns)
	assert.Equal(t, 1, stats.ClassifierPositives)
	assert.Equal(t, 1, stats.VerifierRuns)
	assert.Equal(t, 1, stats.VerifierPassed)
	assert.Equal(t, 1, stats.NewSitesFound)
	assert.Equal(t, 1, stats.AdmissionsBySource[string(models.SourceAggregator)])

	site, _ := storage.GetByURL(context.Background(), "https://streameast.app")
	require.NotNil(t, site)
	assert.Equal(t, 80, site.ConfidenceScore)

	assert.Equal(t, 1, cycleLog.Count("New page being crawled"))
	assert.Equal(t, 1, cycleLog.Count("classifier's verdict"))
	assert.Equal(t, 1, cycleLog.Count("(POSITIVE)"))
	assert.Equal(t, 1, cycleLog.Count("V2 verification"))
	assert.Equal(t, 1, cycleLog.Count("passed=true"))
	assert.Equal(t, 1, cycleLog.Count("successfully written to database"))
}

func TestRunNegativeClassifierStopsFunnel(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]models.FetchResult{
		"https://bakery.example": {OK: true, Body: `<html><body>plain page</body></html>`},
	}}
	storage := newFakeStorage()
	cycleLog := common.NewCycleLog()
	service := newTestCrawler(fetcher, storage, Config{Workers: 1}, cycleLog)

	frontier := service.SeedFrontier([]models.Candidate{{URL: "https://bakery.example"}})
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ClassifierRuns)
	assert.Equal(t, 0, stats.ClassifierPositives)
	assert.Equal(t, 0, stats.VerifierRuns, "verifier must not run on negative pages")
	assert.Equal(t, 0, stats.NewSitesFound)
	assert.Equal(t, 1, cycleLog.Count("(NEGATIVE)"))
}

func TestRunFailedVerificationStopsAdmission(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]models.FetchResult{
		"https://thin.example": {OK: true, Body: `<html><body>marker-positive only</body></html>`},
	}}
	storage := newFakeStorage()
	cycleLog := common.NewCycleLog()
	service := newTestCrawler(fetcher, storage, Config{Workers: 1}, cycleLog)

	frontier := service.SeedFrontier([]models.Candidate{{URL: "https://thin.example"}})
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.VerifierRuns)
	assert.Equal(t, 0, stats.VerifierPassed)
	assert.Equal(t, 0, stats.NewSitesFound)
	assert.Equal(t, 1, cycleLog.Count("passed=false"))
}

func TestRunFollowsRelevantLinks(t *testing.T) {
	seedBody := `<html><body>
		<a href="https://streameast.app/nfl-live-stream">Watch NFL live stream</a>
		<a href="https://streameast.app/privacy">Privacy policy</a>
		</body></html>`
	fetcher := &stubFetcher{pages: map[string]models.FetchResult{
		"https://streameast.app":                 {OK: true, Body: seedBody},
		"https://streameast.app/nfl-live-stream": {OK: true, Body: `<html><body>game page</body></html>`},
	}}
	storage := newFakeStorage()
	cycleLog := common.NewCycleLog()
	service := newTestCrawler(fetcher, storage, Config{Workers: 1, RelevancyThreshold: 0.6, MaxDepth: 2}, cycleLog)

	frontier := service.SeedFrontier([]models.Candidate{{URL: "https://streameast.app"}})
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)

	// Both links evaluated, only the relevant one followed
	assert.Equal(t, 2, stats.LinksEvaluated)
	assert.Equal(t, 2, stats.PagesCrawled)
	assert.Equal(t, 2, cycleLog.Count("Link being evaluated"))
}

func TestRunHonorsMaxPages(t *testing.T) {
	pages := make(map[string]models.FetchResult)
	var candidates []models.Candidate
	for _, u := range []string{"https://a.app", "https://b.app", "https://c.app", "https://d.app"} {
		pages[u] = models.FetchResult{OK: true, Body: "<html></html>"}
		candidates = append(candidates, models.Candidate{URL: u})
	}
	service := newTestCrawler(&stubFetcher{pages: pages}, newFakeStorage(),
		Config{Workers: 1, MaxPages: 2}, common.NewCycleLog())

	frontier := service.SeedFrontier(candidates)
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PagesCrawled)
}

func TestRunFeedbackReseedsOncePerURL(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]models.FetchResult{
		"https://streameast.app": {
			OK:   true,
			Body: `<html><body>marker-positive marker-verified marker-streaming</body></html>`,
		},
	}}
	storage := newFakeStorage()
	cycleLog := common.NewCycleLog()
	service := newTestCrawler(fetcher, storage,
		Config{Workers: 1, EnableFeedback: true}, cycleLog)

	frontier := service.SeedFrontier([]models.Candidate{{URL: "https://streameast.app"}})
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)

	// Seed visit plus exactly one re-seeded visit
	assert.Equal(t, 2, stats.PagesCrawled)
	assert.Equal(t, 2, cycleLog.Count("New page being crawled"))
	// Second admission of the same row is an update, not a new site
	assert.Equal(t, 1, stats.NewSitesFound)
}

func TestRunStrictCognitiveVeto(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]models.FetchResult{
		"https://lookalike.app": {
			OK:   true,
			Body: `<html><body>marker-positive marker-verified</body></html>`,
		},
	}}
	storage := newFakeStorage()
	service := newTestCrawler(fetcher, storage,
		Config{Workers: 1, StrictCognitive: true}, common.NewCycleLog())

	frontier := service.SeedFrontier([]models.Candidate{{URL: "https://lookalike.app"}})
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.VerifierPassed)
	assert.Equal(t, 0, stats.NewSitesFound, "clean negative cognitive verdict vetoes in strict mode")
	site, _ := storage.GetByURL(context.Background(), "https://lookalike.app")
	assert.Nil(t, site)
}

func TestRunStrictModeIgnoresAnalyzerFailure(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]models.FetchResult{
		"https://streameast.app": {
			OK:   true,
			Body: `<html><body>marker-positive marker-verified</body></html>`,
		},
	}}
	storage := newFakeStorage()
	service := NewService(
		fetcher, markerExtract, stubClassifier{}, stubVerifier{},
		stubAnalyzer{available: true, err: "timeout"},
		storage, Config{Workers: 1, StrictCognitive: true},
		common.NewCycleLog(), common.GetLogger(),
	)

	frontier := service.SeedFrontier([]models.Candidate{{URL: "https://streameast.app"}})
	stats, err := service.Run(context.Background(), frontier)
	require.NoError(t, err)

	// A failed analysis never vetoes; the technical verdict stands
	assert.Equal(t, 1, stats.NewSitesFound)
	site, _ := storage.GetByURL(context.Background(), "https://streameast.app")
	require.NotNil(t, site)
	assert.Nil(t, site.LLMVerified)
}

func TestRunWriteBacklogIsFatal(t *testing.T) {
	pages := make(map[string]models.FetchResult)
	var candidates []models.Candidate
	for _, u := range []string{"https://a.app", "https://b.app", "https://c.app"} {
		pages[u] = models.FetchResult{
			OK:   true,
			Body: `<html><body>marker-positive marker-verified marker-streaming</body></html>`,
		}
		candidates = append(candidates, models.Candidate{URL: u})
	}
	storage := newFakeStorage()
	storage.setFailing(true)
	service := newTestCrawler(&stubFetcher{pages: pages}, storage,
		Config{Workers: 1, PendingBufferLimit: 1}, common.NewCycleLog())

	frontier := service.SeedFrontier(candidates)
	_, err := service.Run(context.Background(), frontier)
	assert.ErrorIs(t, err, ErrWriteBacklog)
}

func TestRunContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	slowFetcher := &blockingFetcher{release: make(chan struct{})}
	service := NewService(
		slowFetcher, markerExtract, stubClassifier{}, stubVerifier{},
		stubAnalyzer{available: true}, newFakeStorage(),
		Config{Workers: 1}, common.NewCycleLog(), common.GetLogger(),
	)
	defer close(slowFetcher.release)

	frontier := service.SeedFrontier([]models.Candidate{
		{URL: "https://a.app"}, {URL: "https://b.app"},
	})
	done := make(chan struct{})
	go func() {
		service.Run(ctx, frontier)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context expiry")
	}
}

func TestSeedFrontierScoring(t *testing.T) {
	service := newTestCrawler(&stubFetcher{}, newFakeStorage(), Config{}, common.NewCycleLog())

	frontier := service.SeedFrontier([]models.Candidate{
		{URL: "https://plain.app", PriorBonus: 0},
		{URL: "https://boosted.app", PriorBonus: models.MaxPriorBonus},
		{URL: "https://half.app", PriorBonus: 12},
	})
	require.Equal(t, 3, frontier.Len())

	// Highest bonus pops first; zero bonus still seeds at the base score
	assert.Equal(t, "https://boosted.app", frontier.Pop().URL)
	assert.Equal(t, "https://half.app", frontier.Pop().URL)
	plain := frontier.Pop()
	assert.Equal(t, "https://plain.app", plain.URL)
	assert.Equal(t, 0.5, plain.Score)
}

// blockingFetcher parks every fetch until released
type blockingFetcher struct {
	release chan struct{}
}

func (b *blockingFetcher) FetchPage(ctx context.Context, _ string) models.FetchResult {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return models.FetchResult{OK: false, Err: "blocked"}
}
