package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/interfaces"
)

// OpenAIProvider speaks the OpenAI chat-completions wire format. It is the
// default provider and works against local inference servers (LM Studio,
// Ollama's compatibility endpoint) as well as hosted ones.
type OpenAIProvider struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
	retry    RetryConfig
	logger   arbor.ILogger
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []interfaces.Message `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible endpoint
func NewOpenAIProvider(endpoint, model, apiKey string, timeout time.Duration, logger arbor.ILogger) *OpenAIProvider {
	return &OpenAIProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		retry:    DefaultRetryConfig(),
		logger:   logger,
	}
}

// Available reports whether the provider can serve completions. Local
// endpoints often need no key, so only a missing endpoint disables it.
func (p *OpenAIProvider) Available() bool {
	return p.endpoint != ""
}

// Complete sends a chat completion request and returns the first choice
func (p *OpenAIProvider) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	if !p.Available() {
		return "", fmt.Errorf("no completion endpoint configured")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	payload := chatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	return withRetry(ctx, p.retry, func() (string, error) {
		return p.send(ctx, payload)
	})
}

func (p *OpenAIProvider) send(ctx context.Context, payload chatCompletionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	url := p.endpoint + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	content := parsed.Choices[0].Message.Content
	p.logger.Debug().
		Str("model", payload.Model).
		Int("response_length", len(content)).
		Dur("duration", time.Since(start)).
		Msg("Completion received")

	return content, nil
}

// Close releases nothing; the HTTP client holds no persistent state
func (p *OpenAIProvider) Close() error {
	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
