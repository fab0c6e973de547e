// Package embeddings turns section text into vectors for hybrid search. It
// talks to any OpenAI-compatible /embeddings endpoint, by default Docker
// Model Runner over its Unix socket.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// dmrBaseURL is the OpenAI-compatible root Docker Model Runner serves on its socket.
const dmrBaseURL = "http://localhost/exp/vDD4.40/engines/llama.cpp/v1"

// MaxInputChars bounds the section text sent per request. Longer text keeps
// its leading characters, which hold the title and summary.
const MaxInputChars = 20000

// Config selects the embedding endpoint and model.
type Config struct {
	BaseURL    string // API root; empty means Docker Model Runner
	SocketPath string // Docker Model Runner socket, dialled for every request when set
	APIKey     string
	Model      string // e.g. "ai/embeddinggemma"
}

// Client vectorizes sections and search queries.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// New validates config and prepares the HTTP client. Nothing is sent until
// the first Embed call.
func New(config Config) (*Client, error) {
	if config.SocketPath == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("embedding endpoint needs a base URL or a socket path")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	if config.SocketPath != "" {
		httpClient.Transport = &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", config.SocketPath)
			},
		}
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = dmrBaseURL
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(baseURL, "/") + "/embeddings",
		apiKey:     config.APIKey,
		model:      config.Model,
	}, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the vector for text, cut to MaxInputChars runes first.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	runes := []rune(text)
	if len(runes) > MaxInputChars {
		slog.Debug("truncating embedding input", "model", c.model, "chars", len(runes), "kept", MaxInputChars)
		text = string(runes[:MaxInputChars])
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding model %s returned status %d: %s", c.model, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out embedResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("embedding model %s: %s", c.model, out.Error.Message)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding model %s returned no vector", c.model)
	}

	return out.Data[0].Embedding, nil
}

// Dimensions is the vector size the search index mapping uses for model.
// Unknown models get 768.
func Dimensions(model string) int {
	switch model {
	case "ai/snowflake-arctic-embed":
		return 1024
	case "ai/qwen3-embedding":
		return 2560
	case "text-embedding-3-small":
		return 1536
	default: // ai/embeddinggemma and unknown models
		return 768
	}
}
