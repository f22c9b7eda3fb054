package interfaces

import "context"

// Message represents a single chat message
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic chat completion request
type CompletionRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMProvider generates chat completions. Implementations return the raw
// text; JSON validation happens at the analyzer/planner boundary.
type LLMProvider interface {
	Complete(ctx context.Context, request CompletionRequest) (string, error)
	Available() bool
	Close() error
}
