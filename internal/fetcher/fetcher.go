package fetcher

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/mfenderov/doculens/internal/metrics"
)

// Config holds fetcher configuration.
type Config struct {
	Delay     time.Duration // Wait after every successful fetch
	UserAgent string
	Timeout   time.Duration
}

// Fetcher returns the HTML of a page, or false when the page could not be
// fetched. Callers treat a failed fetch as a gap to skip, never as fatal.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, bool)
}

const (
	bodyKey = "body"
	ctxKey  = "stdctx"
)

// Session is a polite, sequential page fetcher backed by one persistent
// collector. Open a session at the start of a scrape and Close it at the end;
// Close drops the keep-alive connections the session opened.
type Session struct {
	config    Config
	collector *colly.Collector
	transport *http.Transport
	mu        sync.Mutex
	closed    bool
}

// Open creates a new Session with the given configuration.
func Open(config Config) *Session {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "DocuLens-Bot/1.0"
	}

	c := colly.NewCollector(
		colly.UserAgent(config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(config.Timeout)

	// Owned per session so Close can release its pooled connections.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	c.WithTransport(transport)

	c.OnRequest(func(r *colly.Request) {
		if ctx, ok := r.Ctx.GetAny(ctxKey).(context.Context); ok && ctx.Err() != nil {
			slog.Debug("fetch cancelled", "url", r.URL.String())
			r.Abort()
			return
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			return
		}
		r.Ctx.Put(bodyKey, string(r.Body))
	})

	return &Session{
		config:    config,
		collector: c,
		transport: transport,
	}
}

// Fetch retrieves url and then waits the configured delay before returning,
// so the session never issues more than one request per delay interval.
// Any failure is logged and reported as false.
func (s *Session) Fetch(ctx context.Context, url string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		slog.Warn("fetch on closed session", "url", url)
		return "", false
	}
	if ctx.Err() != nil {
		return "", false
	}

	slog.Debug("fetching", "url", url)

	cctx := colly.NewContext()
	cctx.Put(ctxKey, ctx)

	if err := s.collector.Request(http.MethodGet, url, nil, cctx, nil); err != nil {
		slog.Warn("failed to fetch page", "url", url, "error", err)
		metrics.FetchTotal.WithLabelValues("error").Inc()
		return "", false
	}

	body := cctx.Get(bodyKey)
	if body == "" {
		slog.Warn("empty response", "url", url)
		metrics.FetchTotal.WithLabelValues("error").Inc()
		return "", false
	}

	metrics.FetchTotal.WithLabelValues("ok").Inc()
	s.wait(ctx)

	return body, true
}

// wait blocks for the configured delay or until ctx is done.
func (s *Session) wait(ctx context.Context) {
	if s.config.Delay <= 0 {
		return
	}
	timer := time.NewTimer(s.config.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Close releases the session's idle connections. Further fetches report no
// content.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.transport.CloseIdleConnections()
	slog.Debug("fetch session closed")
	return nil
}
