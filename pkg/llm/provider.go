// Package llm talks to an OpenAI-compatible chat completions endpoint.
// The runtime targets a local inference server; everything is synchronous
// because the agent loop consumes whole assistant turns.
package llm

import (
	"context"
	"net/http"

	"github.com/joss/aegis/internal/domain"
)

// Provider is the interface the agent loop calls for inference.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ChatRequest represents one inference call.
type ChatRequest struct {
	Model        string
	Messages     []domain.Message
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// ChatResponse is the assistant's complete turn.
type ChatResponse struct {
	Content string
	Usage   *Usage
}

// Usage is the endpoint-reported token accounting, nil when omitted.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Verify http.Client implements HTTPClient
var _ HTTPClient = (*http.Client)(nil)
