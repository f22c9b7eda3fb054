package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/storage/sqlite"
)

// emptyResultsPage is a search response with no organic results
const emptyResultsPage = `<html><body><div id="links"></div></body></html>`

func newTestEngine(t *testing.T, searchEndpoint string) (*Engine, *common.Config) {
	t.Helper()
	t.Setenv("SIDELINE_LLM_API_KEY", "")

	dir := t.TempDir()
	config := common.DefaultConfig()
	config.Operational.AggregatorURLs = nil
	config.Operational.PermutationBases = nil
	config.Crawler.EnableJavaScript = false
	config.Crawler.CycleTimeout = "30s"
	config.LLM.Endpoint = ""
	config.Search.Endpoint = searchEndpoint
	config.Search.MinQueryInterval = "1ms"
	config.Search.BackoffInterval = "1ms"
	config.Classifier.ModelPath = filepath.Join(dir, "missing_model.json")
	config.Storage.SQLite.Path = filepath.Join(dir, "sites.db")
	config.Reports.Dir = filepath.Join(dir, "reports")

	db, err := sqlite.NewSQLiteDB(common.GetLogger(), &config.Storage.SQLite)
	require.NoError(t, err)
	storage := sqlite.NewCatalogStorage(db, common.GetLogger())
	t.Cleanup(func() { storage.Close() })

	eng, err := New(config, storage, common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng, config
}

func TestRunCycleEmptyCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyResultsPage))
	}))
	defer server.Close()

	eng, config := newTestEngine(t, server.URL)

	report, err := eng.RunCycle(context.Background())
	require.NoError(t, err)

	// No provider and no model means fallback planning and an empty crawl
	assert.Equal(t, "after_action", report.ReportType)
	assert.NotEmpty(t, report.CycleID)
	assert.Equal(t, 0, report.Summary.PagesCrawled)
	assert.Equal(t, 0, report.Discovery.NewSitesFound)

	entries, err := os.ReadDir(config.Reports.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTestCommandRunsAbbreviatedCycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyResultsPage))
	}))
	defer server.Close()

	eng, config := newTestEngine(t, server.URL)

	require.NoError(t, eng.Test(context.Background()))

	// The abbreviated cycle persists an after-action report like a full one
	entries, err := os.ReadDir(config.Reports.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestServeRejectsInvalidSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyResultsPage))
	}))
	defer server.Close()

	eng, config := newTestEngine(t, server.URL)
	config.Engine.Schedule = "not a schedule"

	err := eng.Serve(context.Background())
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestTrainRequiresCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyResultsPage))
	}))
	defer server.Close()

	eng, _ := newTestEngine(t, server.URL)
	err := eng.Train(context.Background())
	assert.ErrorContains(t, err, "no train_command configured")
}

func TestTrainRunsConfiguredCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyResultsPage))
	}))
	defer server.Close()

	eng, config := newTestEngine(t, server.URL)

	config.Engine.TrainCommand = "true"
	require.NoError(t, eng.Train(context.Background()))

	config.Engine.TrainCommand = "false"
	assert.ErrorContains(t, eng.Train(context.Background()), "training pipeline failed")
}
