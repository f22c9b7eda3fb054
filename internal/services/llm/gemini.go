package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiProvider serves completions through the Google Gemini API
type GeminiProvider struct {
	model   string
	client  *genai.Client
	timeout time.Duration
	retry   RetryConfig
	logger  arbor.ILogger
}

// NewGeminiProvider creates a Gemini provider. With no API key the
// provider is created but reports unavailable.
func NewGeminiProvider(model, apiKey string, timeout time.Duration, logger arbor.ILogger) (*GeminiProvider, error) {
	p := &GeminiProvider{
		model:   model,
		timeout: timeout,
		retry:   DefaultRetryConfig(),
		logger:  logger,
	}
	if apiKey == "" {
		return p, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	p.client = client
	return p, nil
}

// Available reports whether a client was initialized
func (p *GeminiProvider) Available() bool {
	return p.client != nil
}

// Complete generates a response from the conversation history. System
// messages become the SystemInstruction.
func (p *GeminiProvider) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("no API key configured for Gemini provider")
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	var systemText string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}
	if systemText != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	return withRetry(ctx, p.retry, func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		resp, err := p.client.Models.GenerateContent(callCtx, model, contents, genConfig)
		if err != nil {
			return "", fmt.Errorf("Gemini API call failed: %w", err)
		}

		var out strings.Builder
		if resp != nil {
			for _, candidate := range resp.Candidates {
				if candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					if part.Text != "" {
						out.WriteString(part.Text)
					}
				}
				if out.Len() > 0 {
					break
				}
			}
		}
		if out.Len() == 0 {
			return "", fmt.Errorf("no response generated from Gemini API")
		}
		return out.String(), nil
	})
}

// Close releases the client
func (p *GeminiProvider) Close() error {
	p.client = nil
	return nil
}
