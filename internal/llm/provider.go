package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfenderov/doculens/internal/config"
)

// Completer is a text-in, text-out chat provider.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// FromConfig builds the provider described by cfg. It returns nil and no
// error when the slot is unconfigured: no provider name, or a hosted
// provider without an API key.
func FromConfig(cfg config.Provider) (Completer, error) {
	c := Config{
		Name:        strings.ToLower(cfg.Provider),
		BaseURL:     cfg.BaseURL,
		SocketPath:  cfg.SocketPath,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}

	switch c.Name {
	case "":
		return nil, nil
	case "anthropic":
		if c.APIKey == "" {
			return nil, nil
		}
		client, err := NewAnthropic(c)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "groq", "openai":
		if c.APIKey == "" {
			return nil, nil
		}
		return newChat(c)
	case "dmr":
		c.BaseURL = ""
		if c.SocketPath == "" {
			return nil, fmt.Errorf("socket path is required for dmr")
		}
		return newChat(c)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newChat(c Config) (Completer, error) {
	client, err := New(c)
	if err != nil {
		return nil, err
	}
	return client, nil
}
