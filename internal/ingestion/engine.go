// Package ingestion drives documentation sources into the store: index scrape,
// per-section scrape, summarize and commit, then optional resource enrichment.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mfenderov/doculens/internal/events"
	"github.com/mfenderov/doculens/internal/extractor"
	"github.com/mfenderov/doculens/internal/fetcher"
	"github.com/mfenderov/doculens/internal/metrics"
	"github.com/mfenderov/doculens/internal/store"
	"github.com/mfenderov/doculens/internal/summarizer"
	"github.com/mfenderov/doculens/pkg/models"
)

// ErrInvalidParameter is returned for request-level misuse such as an empty
// language name or an out-of-range per-section maximum.
var ErrInvalidParameter = errors.New("invalid parameter")

// Placeholder texts used when a section has no usable content or summary.
const (
	PlaceholderContent  = "Content will be available soon."
	ShortPreviewSummary = "Introduction to programming concepts."
	FailedSummary       = "Comprehensive programming tutorial."
	EmptySummary        = "Learn programming fundamentals."

	minPreviewChars = 100
	logoURLPattern  = "https://cdn.jsdelivr.net/gh/devicons/devicon/icons/%[1]s/%[1]s-original.svg"
)

// Status classifies how an ingestion run ended.
type Status string

const (
	StatusSucceeded     Status = "succeeded"       // every indexed section was stored
	StatusPartial       Status = "partial"         // some sections were skipped or failed
	StatusEmpty         Status = "empty"           // the index produced no sections
	StatusFailedToStart Status = "failed_to_start" // no extractor, or the language could not be resolved
)

// Store is the persistence the orchestrator needs.
type Store interface {
	GetLanguageByName(ctx context.Context, name string) (*models.Language, error)
	GetLanguage(ctx context.Context, id string) (*models.Language, error)
	CreateLanguage(ctx context.Context, l *models.Language) error
	ListSections(ctx context.Context, languageID string) ([]models.Section, error)
	CountVideos(ctx context.Context, sectionID string) (int, error)
	CountProblems(ctx context.Context, sectionID string) (int, error)
	Begin(ctx context.Context) (store.Tx, error)
}

// Summarizer produces section summaries.
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) (string, error)
}

// Sessions opens a fetcher for one ingestion run. The returned func releases
// it and is called when the run ends, whatever the outcome.
type Sessions func() (fetcher.Fetcher, func())

// FetchSessions returns Sessions backed by a new fetcher.Session per run.
func FetchSessions(config fetcher.Config) Sessions {
	return func() (fetcher.Fetcher, func()) {
		s := fetcher.Open(config)
		return s, func() { s.Close() }
	}
}

// Config holds orchestrator tuning. Zero values use the defaults.
type Config struct {
	Extractor       extractor.Options
	Roots           map[extractor.Source]string // Scraping root per source; unset uses the site default
	MaxCodeExamples int     // Code examples stored per section
	QuickPathRatio  float64 // Leading share of sections flagged quick path
	PreviewWords    int     // Words of content sent for summarization
	SummaryMaxWords int
}

func (c Config) withDefaults() Config {
	if c.MaxCodeExamples <= 0 {
		c.MaxCodeExamples = 5
	}
	if c.QuickPathRatio <= 0 || c.QuickPathRatio > 1 {
		c.QuickPathRatio = 0.4
	}
	if c.PreviewWords <= 0 {
		c.PreviewWords = 100
	}
	if c.SummaryMaxWords <= 0 {
		c.SummaryMaxWords = 150
	}
	return c
}

// Result holds the outcome of one ingestion run.
type Result struct {
	LanguageID        string        `json:"language_id"`
	LanguageName      string        `json:"language_name"`
	SectionsScraped   int           `json:"sections_scraped"`
	SectionsStored    int           `json:"sections_stored"`
	QuickPathSections int           `json:"quick_path_sections"`
	Status            Status        `json:"status"`
	Duration          time.Duration `json:"duration"`
	Errors            []string      `json:"errors,omitempty"`
}

// Orchestrator runs ingestion and enrichment against one store.
type Orchestrator struct {
	store      Store
	summarizer Summarizer // nil degrades every summary to a placeholder
	videos     VideoSearcher
	problems   ProblemSearcher
	sessions   Sessions
	config     Config
	notify     chan<- events.SectionStored
}

// New creates an orchestrator. Use WithVideos, WithProblems and Notify to
// attach the optional collaborators.
func New(st Store, sum Summarizer, sessions Sessions, config Config) *Orchestrator {
	return &Orchestrator{
		store:      st,
		summarizer: sum,
		sessions:   sessions,
		config:     config.withDefaults(),
	}
}

// Notify sends a SectionStored event on ch after every committed section.
// The caller owns ch and must keep draining it while Ingest runs.
func (o *Orchestrator) Notify(ch chan<- events.SectionStored) *Orchestrator {
	o.notify = ch
	return o
}

// Ingest scrapes the documentation for language and stores every section it
// can. docURL is recorded as the language's official documentation link; the
// pages scraped come from Config.Roots or the source's default root.
//
// Per-section failures and an unavailable index are recorded in
// Result.Errors. An error is returned only for misuse: an empty language name.
func (o *Orchestrator) Ingest(ctx context.Context, language, docURL string) (*Result, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		return nil, fmt.Errorf("%w: language name is required", ErrInvalidParameter)
	}

	start := time.Now()
	result := &Result{LanguageName: language}
	slog.Info("starting ingestion", "language", language, "doc_url", docURL)

	source, err := extractor.SourceForLanguage(language)
	if err != nil {
		return o.failedToStart(result, start, err), nil
	}

	lang, err := o.resolveLanguage(ctx, language, docURL)
	if err != nil {
		return o.failedToStart(result, start, err), nil
	}
	result.LanguageID = lang.ID

	f, release := o.sessions()
	defer release()

	opts := o.config.Extractor
	opts.BaseURL = o.config.Roots[source]
	ex, err := extractor.For(source, f, opts)
	if err != nil {
		return o.failedToStart(result, start, err), nil
	}

	stubs, err := ex.ScrapeIndex(ctx)
	if err != nil {
		slog.Error("failed to scrape index", "language", language, "error", err)
		result.Errors = append(result.Errors, err.Error())
	}
	result.SectionsScraped = len(stubs)
	slog.Info("found sections to ingest", "language", language, "count", len(stubs))

	scraped, err := o.scrapeSections(ctx, ex, stubs, result)
	if err != nil {
		result.Errors = append(result.Errors, "context cancelled")
		scraped = nil
	}

	// The quick path is the leading share of the sections that were scraped.
	quickCount := quickPathCount(len(scraped), o.config.QuickPathRatio)
	for i, s := range scraped {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		sec, err := o.storeSection(ctx, lang, s, i < quickCount)
		if err != nil {
			slog.Error("failed to store section", "title", s.Title, "url", s.SourceURL, "error", err)
			metrics.SectionsTotal.WithLabelValues("failed").Inc()
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		metrics.SectionsTotal.WithLabelValues("stored").Inc()
		result.SectionsStored++
		if sec.IsQuickPath {
			result.QuickPathSections++
		}
		slog.Debug("section stored", "title", sec.Title, "id", sec.ID, "quick_path", sec.IsQuickPath)

		o.publish(ctx, lang, sec, s.HTML)
	}

	result.Status = runStatus(result)
	result.Duration = time.Since(start)
	slog.Info("ingestion complete",
		"language", language,
		"status", result.Status,
		"sections_scraped", result.SectionsScraped,
		"sections_stored", result.SectionsStored,
		"duration", result.Duration,
		"errors", len(result.Errors))

	return result, nil
}

// scrapeSections fetches every stub in index order and merges it with its
// content. Sections that cannot be scraped are recorded in result and left out.
// It returns ctx.Err() when the run is cancelled.
func (o *Orchestrator) scrapeSections(ctx context.Context, ex extractor.Extractor, stubs []models.SectionStub, result *Result) ([]models.ScrapedSection, error) {
	scraped := make([]models.ScrapedSection, 0, len(stubs))
	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return scraped, err
		}

		content, err := ex.ScrapeSection(ctx, stub.SourceURL)
		if err != nil || content == nil {
			msg := fmt.Sprintf("failed to scrape section %q", stub.Title)
			if err != nil {
				msg = fmt.Sprintf("%s: %v", msg, err)
			}
			slog.Warn("skipping section", "title", stub.Title, "url", stub.SourceURL, "error", err)
			metrics.SectionsTotal.WithLabelValues("skipped").Inc()
			result.Errors = append(result.Errors, msg)
			continue
		}
		scraped = append(scraped, models.MergeSection(stub, *content))
	}
	return scraped, nil
}

func (o *Orchestrator) failedToStart(result *Result, start time.Time, err error) *Result {
	slog.Error("ingestion failed to start", "language", result.LanguageName, "error", err)
	result.Status = StatusFailedToStart
	result.Errors = append(result.Errors, err.Error())
	result.Duration = time.Since(start)
	return result
}

func runStatus(r *Result) Status {
	switch {
	case r.SectionsScraped == 0:
		return StatusEmpty
	case r.SectionsStored == r.SectionsScraped:
		return StatusSucceeded
	default:
		return StatusPartial
	}
}

// quickPathCount returns how many leading sections fall in the quick path.
func quickPathCount(total int, ratio float64) int {
	return int(math.Ceil(float64(total)*ratio - 1e-9))
}

// resolveLanguage returns the language named name, creating it when absent.
func (o *Orchestrator) resolveLanguage(ctx context.Context, name, docURL string) (*models.Language, error) {
	lang, err := o.store.GetLanguageByName(ctx, name)
	if err == nil {
		return lang, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	lower := strings.ToLower(name)
	lang = &models.Language{
		Name:           name,
		Slug:           lower,
		Description:    fmt.Sprintf("Learn %s programming", name),
		OfficialDocURL: docURL,
		LogoURL:        fmt.Sprintf(logoURLPattern, lower),
	}
	if err := o.store.CreateLanguage(ctx, lang); err != nil {
		// A concurrent run may have created it first.
		if existing, lookupErr := o.store.GetLanguageByName(ctx, name); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	slog.Info("created language", "name", name, "id", lang.ID)
	return lang, nil
}

// storeSection summarizes one scraped section and commits it with its code
// examples in its own transaction.
func (o *Orchestrator) storeSection(ctx context.Context, lang *models.Language, s models.ScrapedSection, quick bool) (*models.Section, error) {
	if strings.TrimSpace(s.Title) == "" {
		return nil, fmt.Errorf("section at %s has no title", s.SourceURL)
	}

	body := s.RawText
	if strings.TrimSpace(body) == "" {
		body = PlaceholderContent
	}

	sec := &models.Section{
		LanguageID:       lang.ID,
		Title:            s.Title,
		Slug:             s.Slug,
		ContentRaw:       body,
		Summary:          o.summarize(ctx, lang.Name, body),
		SourceURL:        s.SourceURL,
		OrderIndex:       s.OrderIndex,
		EstimatedMinutes: s.EstimatedMinutes,
		Difficulty:       s.Difficulty,
		IsQuickPath:      quick,
		IsDeepPath:       true,
	}
	if sec.EstimatedMinutes <= 0 {
		sec.EstimatedMinutes = extractor.MinReadingMinutes
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if err := saveSection(ctx, tx, sec, s.CodeExamples, o.config.MaxCodeExamples); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("rollback failed", "title", s.Title, "error", rbErr)
		}
		return nil, fmt.Errorf("failed to store section %q: %w", s.Title, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to store section %q: %w", s.Title, err)
	}
	return sec, nil
}

func saveSection(ctx context.Context, tx store.Tx, sec *models.Section, code []models.CodeExample, limit int) error {
	if err := tx.SaveSection(ctx, sec); err != nil {
		return err
	}
	for i, ex := range code {
		if i >= limit {
			break
		}
		if err := tx.InsertCodeExample(ctx, sec.ID, ex); err != nil {
			return err
		}
	}
	return nil
}

// summarize returns the stored summary for body. It never fails: short
// previews, provider errors and empty responses map to fixed placeholders.
func (o *Orchestrator) summarize(ctx context.Context, language, body string) string {
	preview := extractor.Preview(body, o.config.PreviewWords)
	if len(preview) < minPreviewChars {
		return ShortPreviewSummary
	}
	if o.summarizer == nil {
		return FailedSummary
	}

	summary, err := o.summarizer.Summarize(ctx, summarizer.Request{
		Content:         preview,
		MaxWords:        o.config.SummaryMaxWords,
		Style:           summarizer.StyleConcise,
		LanguageContext: language,
	})
	if err != nil {
		slog.Warn("summary generation failed, using placeholder", "language", language, "error", err)
		return FailedSummary
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return EmptySummary
	}
	return summary
}

func (o *Orchestrator) publish(ctx context.Context, lang *models.Language, sec *models.Section, html string) {
	if o.notify == nil {
		return
	}

	event := events.SectionStored{
		LanguageID: lang.ID,
		Language:   lang.Name,
		SectionID:  sec.ID,
		Title:      sec.Title,
		Slug:       sec.Slug,
		SourceURL:  sec.SourceURL,
		Content:    sec.ContentRaw,
		Summary:    sec.Summary,
		Difficulty: string(sec.Difficulty),
		OrderIndex: sec.OrderIndex,
		HTML:       html,
		StoredAt:   time.Now(),
	}
	select {
	case o.notify <- event:
	case <-ctx.Done():
	}
}
