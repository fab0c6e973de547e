package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultAnthropicURL is the Anthropic API root.
	DefaultAnthropicURL = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
)

// AnthropicClient wraps the Anthropic Messages API.
type AnthropicClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// NewAnthropic creates a Messages API client. Name and SocketPath in config
// are ignored.
func NewAnthropic(config Config) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultAnthropicURL
	}

	return &AnthropicClient{
		httpClient:  newHTTPClient("", config.Timeout),
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      config.APIKey,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
	}, nil
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Name returns the provider label.
func (c *AnthropicClient) Name() string { return "anthropic" }

// Complete sends a system and user prompt and returns the concatenated text
// blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	tokens := clampTokens(maxTokens, c.maxTokens)
	if tokens <= 0 {
		tokens = 1024 // the Messages API requires a limit
	}

	req := messagesRequest{
		Model:       c.model,
		MaxTokens:   tokens,
		System:      system,
		Messages:    []chatMessage{{Role: "user", Content: user}},
		Temperature: c.temperature,
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp messagesResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no response returned")
	}
	return strings.TrimSpace(text.String()), nil
}
