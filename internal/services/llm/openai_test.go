package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/interfaces"
)

func TestOpenAIComplete(t *testing.T) {
	var gotAuth string
	var gotPayload chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from model"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL+"/v1", "local-model", "test-key", 5*time.Second, common.GetLogger())
	require.True(t, provider.Available())

	result, err := provider.Complete(context.Background(), interfaces.CompletionRequest{
		Messages:    []interfaces.Message{{Role: "user", Content: "hi"}},
		MaxTokens:   100,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from model", result)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "local-model", gotPayload.Model, "falls back to the configured model")
	assert.Equal(t, 100, gotPayload.MaxTokens)
}

func TestOpenAICompleteOverridesModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload chatCompletionRequest
		json.NewDecoder(r.Body).Decode(&payload)
		assert.Equal(t, "other-model", payload.Model)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "local-model", "", 5*time.Second, common.GetLogger())
	_, err := provider.Complete(context.Background(), interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "hi"}},
		Model:    "other-model",
	})
	require.NoError(t, err)
}

func TestOpenAICompleteNoBearerWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "local-model", "", 5*time.Second, common.GetLogger())
	_, err := provider.Complete(context.Background(), interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
}

func TestOpenAICompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "local-model", "", 5*time.Second, common.GetLogger())
	_, err := provider.Complete(context.Background(), interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "500")
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "local-model", "", 5*time.Second, common.GetLogger())
	_, err := provider.Complete(context.Background(), interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAICompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model not loaded"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "local-model", "", 5*time.Second, common.GetLogger())
	_, err := provider.Complete(context.Background(), interfaces.CompletionRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "model not loaded")
}

func TestOpenAIUnavailableWithoutEndpoint(t *testing.T) {
	provider := NewOpenAIProvider("", "local-model", "", 5*time.Second, common.GetLogger())
	assert.False(t, provider.Available())

	_, err := provider.Complete(context.Background(), interfaces.CompletionRequest{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefghij", 5))
}
