// Package processor renders scraped section HTML as Markdown for archiving.
package processor

import (
	"fmt"
	"slices"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"golang.org/x/net/html"
)

// Page is one scraped section to render.
type Page struct {
	Title     string
	SourceURL string
	Summary   string
	HTML      string // Main content container
}

// noiseTags never carry section text.
var noiseTags = []string{"script", "style", "nav", "button", "noscript"}

// noiseClasses mark page chrome left inside content containers: Sphinx
// permalink anchors and sidebars, mdBook chapter navigation.
var noiseClasses = []string{"headerlink", "sphinxsidebar", "nav-chapters", "copybutton"}

// Processor converts section HTML to Markdown.
type Processor struct{}

// New creates a new HTML to Markdown processor.
func New() *Processor {
	return &Processor{}
}

// Convert strips page chrome from the section HTML and renders the rest as
// Markdown. Relative links resolve against pageURL when it is set.
func (p *Processor) Convert(htmlContent, pageURL string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", nil
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse section html: %w", err)
	}
	stripNoise(doc)

	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	markdown, err := htmltomarkdown.ConvertNode(doc, opts...)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(markdown)), nil
}

// Render converts a section to a Markdown document with a small front matter
// block.
func (p *Processor) Render(page Page) (string, error) {
	if strings.TrimSpace(page.Title) == "" {
		return "", fmt.Errorf("section at %s has no title", page.SourceURL)
	}

	body, err := p.Convert(page.HTML, page.SourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", page.SourceURL, err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", page.Title)
	fmt.Fprintf(&b, "source_url: %q\n", page.SourceURL)
	if page.Summary != "" {
		fmt.Fprintf(&b, "summary: %q\n", page.Summary)
	}
	b.WriteString("---\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String(), nil
}

// stripNoise removes chrome elements from the tree in place.
func stripNoise(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isNoise(c) {
			n.RemoveChild(c)
		} else {
			stripNoise(c)
		}
		c = next
	}
}

func isNoise(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if slices.Contains(noiseTags, n.Data) {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			if slices.Contains(noiseClasses, class) {
				return true
			}
		}
	}
	return false
}
