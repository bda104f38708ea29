package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// defaultBaseURL is the local inference server (AEGIS_PROVIDER_URL
// overrides it at the config layer).
const defaultBaseURL = "http://127.0.0.1:8080/v1/chat/completions"

// OpenAI speaks the OpenAI chat completions wire format against any
// compatible endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  HTTPClient
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	return NewOpenAIWithClient(apiKey, baseURL, &http.Client{})
}

func NewOpenAIWithClient(apiKey, baseURL string, client HTTPClient) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: normalizeBaseURL(baseURL),
		client:  client,
	}
}

// normalizeBaseURL accepts a bare host, a /v1 root, or a full completions
// URL and lands on the completions endpoint.
func normalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/chat/completions"
	}
	return baseURL + "/v1/chat/completions"
}

func (o *OpenAI) Name() string { return "openai-compatible" }

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (o *OpenAI) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	msgs := make([]wireMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, wireMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		if m.Content == "" {
			continue
		}
		// History keeps its roles; synthetic summary turns stay system.
		msgs = append(msgs, wireMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(wireRequest{
		Model:       req.Model,
		Messages:    msgs,
		Stream:      false,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("provider error %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(wire.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	out := &ChatResponse{Content: wire.Choices[0].Message.Content}
	if wire.Usage != nil {
		out.Usage = &Usage{
			InputTokens:  wire.Usage.PromptTokens,
			OutputTokens: wire.Usage.CompletionTokens,
		}
	}
	return out, nil
}

var _ Provider = (*OpenAI)(nil)
