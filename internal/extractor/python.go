package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/mfenderov/doculens/internal/fetcher"
	"github.com/mfenderov/doculens/pkg/models"
)

// DefaultPythonURL is the root of the official Python tutorial.
const DefaultPythonURL = "https://docs.python.org/3/tutorial/"

// Python extracts sections from the Sphinx-built Python tutorial.
type Python struct {
	fetcher fetcher.Fetcher
	opts    Options
	baseURL string
}

// NewPython creates a Python tutorial extractor.
func NewPython(f fetcher.Fetcher, opts Options) *Python {
	base := opts.BaseURL
	if base == "" {
		base = DefaultPythonURL
	}
	return &Python{fetcher: f, opts: opts.withDefaults(), baseURL: base}
}

func (p *Python) Source() Source { return SourcePython }

func (p *Python) ScrapeIndex(ctx context.Context) ([]models.SectionStub, error) {
	base, err := baseDir(p.baseURL)
	if err != nil {
		return nil, err
	}
	indexURL := base.JoinPath("index.html").String()

	html, ok := p.fetcher.Fetch(ctx, indexURL)
	if !ok {
		slog.Error("failed to fetch tutorial index", "url", indexURL)
		return nil, fmt.Errorf("%w: failed to fetch %s", ErrIndexUnavailable, indexURL)
	}

	doc, err := parse(html)
	if err != nil {
		slog.Error("failed to parse tutorial index", "url", indexURL, "error", err)
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrIndexUnavailable, indexURL, err)
	}

	root := sphinxBody(doc)
	if root == nil {
		slog.Error("could not find tutorial content", "url", indexURL)
		return nil, fmt.Errorf("%w: no tutorial content at %s", ErrIndexUnavailable, indexURL)
	}

	stubs := indexLinks(base, root.Find("a.reference.internal"), func(a *goquery.Selection) string {
		return CleanText(a.Text())
	}, p.opts)

	slog.Info("extracted tutorial sections", "source", SourcePython, "count", len(stubs))
	return stubs, nil
}

func (p *Python) ScrapeSection(ctx context.Context, url string) (*models.SectionContent, error) {
	html, ok := p.fetcher.Fetch(ctx, url)
	if !ok {
		return nil, nil
	}

	doc, err := parse(html)
	if err != nil {
		slog.Warn("failed to parse section", "url", url, "error", err)
		return nil, nil
	}

	root := sphinxBody(doc)
	if root == nil {
		slog.Warn("no content found", "url", url)
		return nil, nil
	}
	root.Find("div.sphinxsidebar, div.related, nav").Remove()

	var code []models.CodeExample
	doc.Find("div.highlight, pre.highlight").Each(func(_ int, s *goquery.Selection) {
		// Sphinx nests pre inside div.highlight; take the outer block only.
		if goquery.NodeName(s) == "pre" && s.ParentsFiltered("div.highlight").Length() > 0 {
			return
		}
		block := s.Find("code")
		if block.Length() == 0 {
			block = s
		}
		code = keepCode(code, block.Text(), "python", p.opts)
	})

	content := buildContent(url, root, code, p.opts)
	slog.Info("scraped section", "url", url, "words", content.WordCount, "code_examples", len(code))
	return content, nil
}

func sphinxBody(doc *goquery.Document) *goquery.Selection {
	if body := doc.Find("div.body").First(); body.Length() > 0 {
		return body
	}
	if section := doc.Find("section").First(); section.Length() > 0 {
		return section
	}
	return nil
}
