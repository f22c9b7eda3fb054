package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sideline/internal/common"
)

func TestStaticFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sideline-test", r.Header.Get("User-Agent"))
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(2*time.Second, "sideline-test", common.GetLogger())
	result := fetcher.Fetch(context.Background(), server.URL)

	assert.True(t, result.OK)
	assert.Equal(t, 200, result.StatusCode)
	assert.Contains(t, result.Body, "hello")
	assert.False(t, result.Rendered)
	assert.Greater(t, result.Elapsed, time.Duration(0))
}

func TestStaticFetchFollowsRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landed"))
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/final", http.StatusFound)
	}))
	defer redirector.Close()

	fetcher := NewStaticFetcher(2*time.Second, "sideline-test", common.GetLogger())
	result := fetcher.Fetch(context.Background(), redirector.URL)

	assert.True(t, result.OK)
	assert.Equal(t, target.URL+"/final", result.FinalURL)
	assert.Contains(t, result.Body, "landed")
}

func TestStaticFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(2*time.Second, "sideline-test", common.GetLogger())
	result := fetcher.Fetch(context.Background(), server.URL)

	assert.False(t, result.OK)
	assert.Equal(t, 503, result.StatusCode)
	assert.NotEmpty(t, result.Err)
}

func TestStaticFetchUnreachable(t *testing.T) {
	fetcher := NewStaticFetcher(200*time.Millisecond, "sideline-test", common.GetLogger())
	result := fetcher.Fetch(context.Background(), "http://127.0.0.1:1")

	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Err)
}

func TestStaticHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(2*time.Second, "sideline-test", common.GetLogger())
	probe := fetcher.Head(context.Background(), server.URL)

	assert.True(t, probe.OK)
	assert.Equal(t, 200, probe.StatusCode)
}

func TestStaticHeadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewStaticFetcher(2*time.Second, "sideline-test", common.GetLogger())
	probe := fetcher.Head(context.Background(), server.URL)

	assert.False(t, probe.OK)
	assert.Equal(t, 404, probe.StatusCode)
}

func TestServiceStaticOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("static body"))
	}))
	defer server.Close()

	service := NewService(Config{
		UserAgent:     "sideline-test",
		StaticTimeout: 2 * time.Second,
		Overall:       2,
		PerHost:       1,
	}, common.GetLogger())
	defer service.Close()

	require.False(t, service.RenderedAvailable())

	result := service.FetchPage(context.Background(), server.URL)
	assert.True(t, result.OK)
	assert.Contains(t, result.Body, "static body")

	probe := service.Head(context.Background(), server.URL)
	assert.True(t, probe.OK)
}
