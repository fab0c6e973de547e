package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DMRBaseURL is the OpenAI-compatible root exposed by Docker Model Runner
// over its Unix socket.
const DMRBaseURL = "http://localhost/exp/vDD4.40/engines/llama.cpp/v1"

// Config holds OpenAI-compatible chat client configuration.
type Config struct {
	Name        string        // Provider label used in logs and metrics
	BaseURL     string        // API root, e.g. https://api.groq.com/openai/v1
	SocketPath  string        // Unix socket path for Docker Model Runner
	APIKey      string        // Sent as a bearer token when set
	Model       string        // Model name (e.g., "llama-3.1-70b-versatile")
	MaxTokens   int           // Upper bound applied to every request
	Temperature float64
	Timeout     time.Duration
}

// Client wraps an OpenAI-compatible chat completions API (Groq, OpenAI,
// Docker Model Runner).
type Client struct {
	httpClient  *http.Client
	name        string
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// New creates a new chat completions client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" && config.SocketPath == "" {
		return nil, fmt.Errorf("base URL or socket path is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DMRBaseURL
	}
	name := config.Name
	if name == "" {
		name = "openai"
	}

	return &Client{
		httpClient:  newHTTPClient(config.SocketPath, config.Timeout),
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      config.APIKey,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
	}, nil
}

// newHTTPClient returns a client that dials socketPath when set.
func newHTTPClient(socketPath string, timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	if socketPath != "" {
		client.Transport = &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		}
	}
	return client
}

// chatRequest is the request payload for the chat completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"` // Limit response length
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response from the chat completions API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Name returns the provider label.
func (c *Client) Name() string { return c.name }

// Complete sends a system and user prompt and returns the response text.
// maxTokens is clamped to the configured limit; 0 applies the limit alone.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   clampTokens(maxTokens, c.maxTokens),
		Temperature: c.temperature,
		TopP:        0.9,
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var chatResp chatResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", headers, req, &chatResp); err != nil {
		return "", err
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response returned")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

func clampTokens(requested, limit int) int {
	switch {
	case requested <= 0:
		return limit
	case limit > 0 && requested > limit:
		return limit
	default:
		return requested
	}
}

// postJSON sends payload as JSON and decodes a 200 response into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
