package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"http 429", errors.New("completion endpoint returned 429: slow down"), true},
		{"resource exhausted", errors.New("rpc error: RESOURCE_EXHAUSTED"), true},
		{"rate limit text", errors.New("rate limit exceeded"), true},
		{"quota text", errors.New("quota exceeded for model"), true},
		{"plain failure", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"nil", nil, 0},
		{"no delay", errors.New("429 too many requests"), 0},
		{"retry in", errors.New("rate limited, retry in 30s"), 30 * time.Second},
		{"retryDelay field", errors.New("RESOURCE_EXHAUSTED retryDelay: 12s"), 12 * time.Second},
		{"fractional seconds", errors.New("retry in 2.5s"), 2500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractRetryDelay(tt.err))
		})
	}
}

func TestBackoff(t *testing.T) {
	policy := DefaultRetryConfig()

	assert.Equal(t, 10*time.Second, policy.Backoff(0, 0))
	assert.Equal(t, 15*time.Second, policy.Backoff(1, 0))
	// API-suggested delay replaces the base, plus a 2s margin
	assert.Equal(t, 7*time.Second, policy.Backoff(0, 5*time.Second))
	// Growth caps at MaxBackoff
	assert.Equal(t, 60*time.Second, policy.Backoff(10, 0))
}

func TestWithRetryNonRetryableError(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "", errors.New("connection refused")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-rate-limit errors must not retry")
}

func TestWithRetrySuccess(t *testing.T) {
	result, err := withRetry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestWithRetryRecoversFromRateLimit(t *testing.T) {
	policy := RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 1.5,
	}
	calls := 0
	result, err := withRetry(context.Background(), policy, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("429 too many requests")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestWithRetryContextCancellation(t *testing.T) {
	policy := RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Hour,
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 1.5,
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := withRetry(ctx, policy, func() (string, error) {
		return "", errors.New("429 too many requests")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
