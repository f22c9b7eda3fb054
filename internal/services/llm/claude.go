package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/interfaces"
)

// ClaudeProvider serves completions through the Anthropic API
type ClaudeProvider struct {
	model   string
	client  *anthropic.Client
	timeout time.Duration
	retry   RetryConfig
	logger  arbor.ILogger
}

// NewClaudeProvider creates a Claude provider. With no API key the
// provider is created but reports unavailable.
func NewClaudeProvider(model, apiKey string, timeout time.Duration, logger arbor.ILogger) *ClaudeProvider {
	p := &ClaudeProvider{
		model:   model,
		timeout: timeout,
		retry:   DefaultRetryConfig(),
		logger:  logger,
	}
	if apiKey != "" {
		client := anthropic.NewClient(option.WithAPIKey(apiKey))
		p.client = &client
	}
	return p
}

// Available reports whether a client was initialized
func (p *ClaudeProvider) Available() bool {
	return p.client != nil
}

// Complete generates a response from the conversation history. System
// messages are lifted into the System parameter.
func (p *ClaudeProvider) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("no API key configured for Claude provider")
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	var systemText string
	claudeMessages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if systemText == "" {
				systemText = msg.Content
			}
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  claudeMessages,
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	return withRetry(ctx, p.retry, func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		resp, err := p.client.Messages.New(callCtx, params)
		if err != nil {
			return "", fmt.Errorf("Claude API call failed: %w", err)
		}

		var out strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				out.WriteString(block.Text)
			}
		}
		if out.Len() == 0 {
			return "", fmt.Errorf("no response generated from Claude API")
		}
		return out.String(), nil
	})
}

// Close releases the client
func (p *ClaudeProvider) Close() error {
	p.client = nil
	return nil
}
