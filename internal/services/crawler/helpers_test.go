package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/sideline/internal/models"
)

// fakeStorage is an in-memory CatalogStorage with a failure toggle
type fakeStorage struct {
	mu      sync.Mutex
	sites   map[string]*models.Site
	failing bool
	upserts int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{sites: make(map[string]*models.Site)}
}

func (f *fakeStorage) setFailing(failing bool) {
	f.mu.Lock()
	f.failing = failing
	f.mu.Unlock()
}

func (f *fakeStorage) Upsert(_ context.Context, site models.SiteUpsert) (models.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return models.UpsertOutcome{}, errors.New("store unavailable")
	}
	f.upserts++

	existing, ok := f.sites[site.URL]
	if ok {
		prior := existing.Status
		existing.ConfidenceScore = site.ConfidenceScore
		existing.Source = site.Source
		existing.Status = models.SiteStatusActive
		existing.LastVerified = time.Now()
		return models.UpsertOutcome{PriorStatus: prior}, nil
	}
	f.sites[site.URL] = &models.Site{
		Name:            site.Name,
		URL:             site.URL,
		Source:          site.Source,
		Status:          models.SiteStatusActive,
		ConfidenceScore: site.ConfidenceScore,
		LastVerified:    time.Now(),
	}
	return models.UpsertOutcome{Inserted: true}, nil
}

func (f *fakeStorage) GetByURL(_ context.Context, url string) (*models.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sites[url], nil
}

func (f *fakeStorage) ListActive(ctx context.Context) ([]models.Site, error) {
	return f.ListByStatus(ctx, models.SiteStatusActive)
}

func (f *fakeStorage) ListByStatus(_ context.Context, status models.SiteStatus) ([]models.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Site
	for _, site := range f.sites {
		if site.Status == status {
			out = append(out, *site)
		}
	}
	return out, nil
}

func (f *fakeStorage) Quarantine(_ context.Context, url, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	site, ok := f.sites[url]
	if !ok {
		return errors.New("no row")
	}
	site.Status = models.SiteStatusQuarantined
	site.FailedAttempts++
	return nil
}

func (f *fakeStorage) Reactivate(_ context.Context, url string, confidence int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	site, ok := f.sites[url]
	if !ok || site.Status != models.SiteStatusQuarantined {
		return errors.New("no quarantined row")
	}
	site.Status = models.SiteStatusActive
	site.ConfidenceScore = confidence
	site.FailedAttempts = 0
	return nil
}

func (f *fakeStorage) Deactivate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	site, ok := f.sites[url]
	if !ok {
		return errors.New("no row")
	}
	site.Status = models.SiteStatusInactive
	return nil
}

func (f *fakeStorage) CountAddedSince(_ context.Context, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sites), nil
}

func (f *fakeStorage) Status(_ context.Context) (*models.CatalogStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := &models.CatalogStatus{SourceBreakdown: make(map[string]int)}
	for _, site := range f.sites {
		status.TotalSites++
		switch site.Status {
		case models.SiteStatusActive:
			status.ActiveSites++
		case models.SiteStatusQuarantined:
			status.QuarantinedSites++
		case models.SiteStatusInactive:
			status.InactiveSites++
		}
		status.SourceBreakdown[string(site.Source)]++
	}
	return status, nil
}

func (f *fakeStorage) Close() error { return nil }

// stubFetcher serves canned pages keyed by URL
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]models.FetchResult
}

func (s *stubFetcher) FetchPage(_ context.Context, url string) models.FetchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result, ok := s.pages[url]; ok {
		return result
	}
	return models.FetchResult{OK: false, Err: "not found"}
}

// The stub funnel stages key off markers in the page body: pages carrying
// "marker-positive" clear the classifier, "marker-verified" clears the
// verifier, and "marker-streaming" gets a positive cognitive verdict.
type stubClassifier struct{}

func (stubClassifier) Available() bool { return true }

func (stubClassifier) Classify(vector map[string]float64) models.Classification {
	if vector["positive"] > 0 {
		return models.Classification{
			Available: true, IsPositive: true, Probability: 0.95, Tier: models.TierVeryHigh,
		}
	}
	return models.Classification{
		Available: true, Probability: 0.1, Tier: models.TierVeryLow,
	}
}

type stubVerifier struct{}

func (stubVerifier) Score(url, body string, probe models.ProbeResult) models.Verification {
	passed := strings.Contains(body, "marker-verified")
	composite := 20
	if passed {
		composite = 80
	}
	return models.Verification{URL: url, Passed: passed, Composite: composite, Probe: probe}
}

func (s stubVerifier) Verify(_ context.Context, url string) models.Verification {
	return models.Verification{URL: url, Passed: false, Composite: 0}
}

type stubAnalyzer struct {
	available bool
	streaming bool
	err       string
}

func (s stubAnalyzer) Available() bool { return s.available }

func (s stubAnalyzer) Analyze(_ context.Context, _ string, body string) models.Analysis {
	if s.err != "" {
		return models.Analysis{ServiceName: "Unknown", PrimaryCategory: "Other", Err: s.err}
	}
	streaming := s.streaming || strings.Contains(body, "marker-streaming")
	category := "Other"
	if streaming {
		category = "Sports Streaming"
	}
	return models.Analysis{
		ServiceName:     "StubSite",
		PrimaryCategory: category,
		IsStreamingSite: streaming,
		Confidence:      90,
		Reasoning:       models.ReasoningBlock{Conclusion: "stub conclusion"},
	}
}

// markerExtract feeds the stub classifier from body markers
func markerExtract(body, _ string) map[string]float64 {
	vector := map[string]float64{}
	if strings.Contains(body, "marker-positive") {
		vector["positive"] = 1
	}
	return vector
}
