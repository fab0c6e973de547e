package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mfenderov/doculens/internal/fetcher"
	"github.com/mfenderov/doculens/pkg/models"
)

// DefaultRustURL is the root of The Rust Programming Language book.
const DefaultRustURL = "https://doc.rust-lang.org/book/"

var chapterNumber = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+`)

// Rust extracts sections from the mdBook-built Rust book.
type Rust struct {
	fetcher fetcher.Fetcher
	opts    Options
	baseURL string
}

// NewRust creates a Rust book extractor.
func NewRust(f fetcher.Fetcher, opts Options) *Rust {
	base := opts.BaseURL
	if base == "" {
		base = DefaultRustURL
	}
	return &Rust{fetcher: f, opts: opts.withDefaults(), baseURL: base}
}

func (r *Rust) Source() Source { return SourceRust }

// ScrapeIndex reads the chapter list from the book's sidebar. Newer mdBook
// versions render the sidebar from script, so toc.html is tried when the
// landing page has no chapter list.
func (r *Rust) ScrapeIndex(ctx context.Context) ([]models.SectionStub, error) {
	base, err := baseDir(r.baseURL)
	if err != nil {
		return nil, err
	}

	for _, page := range []string{"index.html", "toc.html"} {
		pageURL := base.JoinPath(page).String()
		html, ok := r.fetcher.Fetch(ctx, pageURL)
		if !ok {
			continue
		}

		doc, err := parse(html)
		if err != nil {
			slog.Warn("failed to parse book index", "url", pageURL, "error", err)
			continue
		}

		anchors := doc.Find("ol.chapter li a")
		if anchors.Length() == 0 {
			continue
		}

		stubs := indexLinks(base, anchors, chapterTitle, r.opts)
		slog.Info("extracted book chapters", "source", SourceRust, "count", len(stubs))
		return stubs, nil
	}

	slog.Error("failed to find book chapter list", "url", base.String())
	return nil, fmt.Errorf("%w: no chapter list under %s", ErrIndexUnavailable, base)
}

func (r *Rust) ScrapeSection(ctx context.Context, url string) (*models.SectionContent, error) {
	html, ok := r.fetcher.Fetch(ctx, url)
	if !ok {
		return nil, nil
	}

	doc, err := parse(html)
	if err != nil {
		slog.Warn("failed to parse section", "url", url, "error", err)
		return nil, nil
	}

	root := doc.Find("main").First()
	if root.Length() == 0 {
		slog.Warn("no content found", "url", url)
		return nil, nil
	}
	root.Find("nav, .nav-chapters, .sidebar, #menu-bar").Remove()

	var code []models.CodeExample
	root.Find("pre > code").Each(func(_ int, s *goquery.Selection) {
		s.Find(".boring").Remove()
		code = keepCode(code, s.Text(), codeLanguage(s, "rust"), r.opts)
	})

	content := buildContent(url, root, code, r.opts)
	slog.Info("scraped section", "url", url, "words", content.WordCount, "code_examples", len(code))
	return content, nil
}

// chapterTitle strips the leading chapter number mdBook renders in the sidebar.
func chapterTitle(a *goquery.Selection) string {
	return chapterNumber.ReplaceAllString(CleanText(a.Text()), "")
}

func codeLanguage(s *goquery.Selection, fallback string) string {
	for _, class := range strings.Fields(s.AttrOr("class", "")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok && lang != "" {
			return lang
		}
	}
	return fallback
}
