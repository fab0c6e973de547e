package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfenderov/doculens/internal/fetcher"
	"github.com/mfenderov/doculens/pkg/models"
)

var (
	// ErrUnsupportedSource is returned when no extractor exists for a source or language.
	ErrUnsupportedSource = errors.New("no scraper available")

	// ErrIndexUnavailable is returned when the table of contents cannot be
	// fetched or does not look like the site's index.
	ErrIndexUnavailable = errors.New("documentation index unavailable")
)

// Source identifies a supported documentation site.
type Source string

const (
	SourcePython Source = "python"
	SourceRust   Source = "rust"
)

// Sources lists every supported source.
var Sources = []Source{SourcePython, SourceRust}

// Extractor turns one documentation site into section stubs and content.
type Extractor interface {
	// Source reports which site this extractor handles.
	Source() Source

	// ScrapeIndex parses the table of contents into ordered, deduplicated stubs.
	// An index page that cannot be fetched or parsed returns ErrIndexUnavailable;
	// an index with no content links returns an empty list.
	ScrapeIndex(ctx context.Context) ([]models.SectionStub, error)

	// ScrapeSection fetches and normalizes a single section page. It returns
	// nil content (and no error) when the page could not be fetched or has no
	// content container.
	ScrapeSection(ctx context.Context, url string) (*models.SectionContent, error)
}

// Options tunes extraction limits. Zero values use the defaults.
type Options struct {
	BaseURL         string // Overrides the site's default documentation root
	MaxSections     int
	ContentCap      int
	MaxCodeExamples int
	MinCodeLength   int
	MaxCodeLength   int
	Classifier      Classifier
}

// DefaultOptions returns the default extraction limits.
func DefaultOptions() Options {
	return Options{
		MaxSections:     15,
		ContentCap:      50000,
		MaxCodeExamples: 10,
		MinCodeLength:   10,
		MaxCodeLength:   5000,
		Classifier:      DefaultClassifier(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxSections <= 0 {
		o.MaxSections = d.MaxSections
	}
	if o.ContentCap <= 0 {
		o.ContentCap = d.ContentCap
	}
	if o.MaxCodeExamples <= 0 {
		o.MaxCodeExamples = d.MaxCodeExamples
	}
	if o.MinCodeLength <= 0 {
		o.MinCodeLength = d.MinCodeLength
	}
	if o.MaxCodeLength <= 0 {
		o.MaxCodeLength = d.MaxCodeLength
	}
	if len(o.Classifier.Hard) == 0 && len(o.Classifier.Medium) == 0 {
		o.Classifier = d.Classifier
	}
	return o
}

// For returns the extractor registered for source.
func For(source Source, f fetcher.Fetcher, opts Options) (Extractor, error) {
	opts = opts.withDefaults()
	switch source {
	case SourcePython:
		return NewPython(f, opts), nil
	case SourceRust:
		return NewRust(f, opts), nil
	default:
		return nil, fmt.Errorf("%w for source %q", ErrUnsupportedSource, source)
	}
}

// SourceForLanguage maps a language name to its documentation source.
func SourceForLanguage(language string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "python", "python3", "python 3":
		return SourcePython, nil
	case "rust":
		return SourceRust, nil
	default:
		return "", fmt.Errorf("%w for %s", ErrUnsupportedSource, language)
	}
}

// ScrapeResult holds the outcome of ScrapeAll.
type ScrapeResult struct {
	Attempted []models.SectionStub    // Every stub from the index
	Sections  []models.ScrapedSection // Stubs whose content was scraped
	Skipped   []models.SectionStub    // Stubs whose content call returned nothing
}

// ScrapeAll scrapes the index and then every section in index order, merging
// stub metadata with content. Sections without content are logged and skipped.
func ScrapeAll(ctx context.Context, ex Extractor) (*ScrapeResult, error) {
	slog.Info("starting scrape", "source", ex.Source())

	stubs, err := ex.ScrapeIndex(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("found sections in index", "source", ex.Source(), "count", len(stubs))

	result := &ScrapeResult{Attempted: stubs}
	for _, stub := range stubs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		content, err := ex.ScrapeSection(ctx, stub.SourceURL)
		if err != nil {
			return result, err
		}
		if content == nil {
			slog.Warn("failed to scrape section", "title", stub.Title, "url", stub.SourceURL)
			result.Skipped = append(result.Skipped, stub)
			continue
		}

		result.Sections = append(result.Sections, models.MergeSection(stub, *content))
		slog.Debug("scraped section", "title", stub.Title, "words", content.WordCount)
	}

	slog.Info("scrape complete", "source", ex.Source(),
		"sections", len(result.Sections), "skipped", len(result.Skipped))
	return result, nil
}
