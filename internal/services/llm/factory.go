// Package llm provides chat-completion providers for the cognitive stages.
// The provider is chosen from the configured model name; anything that is
// not a Claude or Gemini model goes through the OpenAI-compatible endpoint,
// which covers local inference servers.
package llm

import (
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/interfaces"
)

// NewProvider creates the provider matching cfg.LLM.Model. A missing API
// key is not an error here: the returned provider reports Available false
// and the cognitive stages run degraded.
func NewProvider(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMProvider, error) {
	apiKey := cfg.LLMAPIKey()
	timeout := time.Duration(cfg.LLM.Timeout) * time.Second

	model := strings.ToLower(cfg.LLM.Model)
	switch {
	case strings.HasPrefix(model, "claude"):
		logger.Info().Str("model", cfg.LLM.Model).Msg("Using Claude completion provider")
		return NewClaudeProvider(cfg.LLM.Model, apiKey, timeout, logger), nil

	case strings.HasPrefix(model, "gemini"):
		logger.Info().Str("model", cfg.LLM.Model).Msg("Using Gemini completion provider")
		return NewGeminiProvider(cfg.LLM.Model, apiKey, timeout, logger)

	default:
		logger.Info().
			Str("model", cfg.LLM.Model).
			Str("endpoint", cfg.LLM.Endpoint).
			Msg("Using OpenAI-compatible completion provider")
		return NewOpenAIProvider(cfg.LLM.Endpoint, cfg.LLM.Model, apiKey, timeout, logger), nil
	}
}
