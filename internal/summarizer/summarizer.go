// Package summarizer turns documentation text into short prose through a
// primary chat provider with a single failover to a secondary one.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mfenderov/doculens/internal/metrics"
)

var (
	// ErrValidation marks input that no provider will ever accept.
	ErrValidation = errors.New("invalid summarization input")

	// ErrContentTooShort is returned for content below MinContentLength.
	ErrContentTooShort = fmt.Errorf("%w: content too short to summarize", ErrValidation)

	// ErrServiceUnavailable is returned when no provider is configured or
	// every configured provider failed. Callers may retry later.
	ErrServiceUnavailable = errors.New("summarization service temporarily unavailable")
)

const (
	// MinContentLength is the shortest trimmed input that is summarized.
	MinContentLength = 50
	// MaxInputChars caps the text submitted to a provider.
	MaxInputChars = 50000
)

// Style selects the tone of the generated summary.
type Style string

const (
	StyleConcise      Style = "concise"
	StyleDetailed     Style = "detailed"
	StyleBulletPoints Style = "bullet_points"
)

// Provider is a text-in, text-out chat service.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Request describes one summarization call.
type Request struct {
	Content         string
	MaxWords        int
	Style           Style
	LanguageContext string // Optional, e.g. "Python"
}

// Summarizer tries the primary provider and then the secondary one.
type Summarizer struct {
	primary   Provider
	secondary Provider
}

// New creates a Summarizer. Either provider may be nil.
func New(primary, secondary Provider) *Summarizer {
	return &Summarizer{primary: primary, secondary: secondary}
}

// Available reports whether any provider is configured.
func (s *Summarizer) Available() bool {
	return s.primary != nil || s.secondary != nil
}

// Summarize returns a summary of req.Content. It fails with an error wrapping
// ErrValidation before contacting any provider when the content is too short,
// and with ErrServiceUnavailable when no provider produced a summary.
func (s *Summarizer) Summarize(ctx context.Context, req Request) (string, error) {
	if len(strings.TrimSpace(req.Content)) < MinContentLength {
		return "", ErrContentTooShort
	}
	if req.MaxWords <= 0 {
		req.MaxWords = 500
	}

	content := req.Content
	if utf8.RuneCountInString(content) > MaxInputChars {
		content = string([]rune(content)[:MaxInputChars]) + "..."
		slog.Warn("content truncated for summarization", "limit", MaxInputChars)
	}

	system := SystemPrompt(req.Style, req.LanguageContext)
	user := UserPrompt(content, req.MaxWords)
	maxTokens := req.MaxWords * 2

	var failures []error
	for _, p := range []Provider{s.primary, s.secondary} {
		if p == nil {
			continue
		}

		summary, err := p.Complete(ctx, system, user, maxTokens)
		if err == nil {
			metrics.SummariesTotal.WithLabelValues(p.Name(), "ok").Inc()
			return summary, nil
		}

		metrics.SummariesTotal.WithLabelValues(p.Name(), "error").Inc()
		slog.Error("summarization failed", "provider", p.Name(), "error", err)
		failures = append(failures, fmt.Errorf("%s: %w", p.Name(), err))
	}

	if len(failures) == 0 {
		return "", fmt.Errorf("%w: no provider configured", ErrServiceUnavailable)
	}
	return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, errors.Join(failures...))
}

// SystemPrompt builds the style- and language-conditioned instruction.
func SystemPrompt(style Style, languageContext string) string {
	var b strings.Builder
	b.WriteString("You are a technical documentation summarizer. ")

	if languageContext != "" {
		fmt.Fprintf(&b, "You specialize in %s documentation. ", languageContext)
	}

	switch style {
	case StyleConcise:
		b.WriteString("Create brief, clear summaries focusing on core concepts. ")
	case StyleDetailed:
		b.WriteString("Create comprehensive summaries preserving technical details. ")
	case StyleBulletPoints:
		b.WriteString("Create summaries as bullet points highlighting key points. ")
	}

	b.WriteString("Maintain accuracy and technical precision.")
	return b.String()
}

// UserPrompt wraps content in the summarization request.
func UserPrompt(content string, maxWords int) string {
	return fmt.Sprintf(`Summarize the following documentation (max %d words):

%s

Provide a clear, accurate summary that preserves key technical details.`, maxWords, content)
}

// ParseStyle validates a style name.
func ParseStyle(name string) (Style, error) {
	switch s := Style(strings.ToLower(strings.TrimSpace(name))); s {
	case StyleConcise, StyleDetailed, StyleBulletPoints:
		return s, nil
	case "":
		return StyleConcise, nil
	default:
		return "", fmt.Errorf("%w: unknown style %q", ErrValidation, name)
	}
}
