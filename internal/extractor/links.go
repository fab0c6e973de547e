package extractor

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mfenderov/doculens/pkg/models"
)

// indexLinks walks anchors in document order and turns the ones that point at
// content pages into stubs. Anchors, absolute links, non-page hrefs and the
// index page itself are skipped; repeated targets keep their first position.
// The list is capped at opts.MaxSections.
func indexLinks(base *url.URL, anchors *goquery.Selection, title func(*goquery.Selection) string, opts Options) []models.SectionStub {
	seen := make(map[string]bool)
	var stubs []models.SectionStub

	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := contentHref(a.AttrOr("href", ""))
		if !ok {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		absolute := base.ResolveReference(ref).String()
		if seen[absolute] {
			return true
		}

		name := title(a)
		if name == "" {
			return true
		}
		seen[absolute] = true

		order := len(stubs) + 1
		stubs = append(stubs, models.SectionStub{
			Title:      name,
			SourceURL:  absolute,
			Slug:       Slugify(name),
			OrderIndex: order,
			Difficulty: opts.Classifier.Classify(order, name),
		})
		return len(stubs) < opts.MaxSections
	})

	return stubs
}

// contentHref reports whether href points at a relative documentation page,
// returning it with any fragment removed.
func contentHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http:") || strings.HasPrefix(lower, "https:") ||
		strings.HasPrefix(lower, "//") || strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "javascript:") {
		return "", false
	}

	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	if !strings.HasSuffix(strings.ToLower(href), ".html") {
		return "", false
	}
	if strings.EqualFold(path.Base(href), "index.html") {
		return "", false
	}
	return href, true
}

// baseDir turns a documentation root into the directory relative links
// resolve against. A root naming a page such as .../tutorial/index.html
// resolves to its directory.
func baseDir(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("documentation root %q is not an absolute URL", raw)
	}
	switch {
	case u.Path == "":
		u.Path = "/"
	case strings.HasSuffix(u.Path, "/"):
	case path.Ext(u.Path) != "":
		u.Path = strings.TrimSuffix(path.Dir(u.Path), "/") + "/"
	default:
		u.Path += "/"
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
