package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mfenderov/doculens/pkg/models"
)

const textSelector = "p, h1, h2, h3, li"

// collectText gathers visible text from block and list elements in document
// order, joined by paragraph breaks. List items that wrap paragraphs are
// skipped since their paragraphs are collected on their own.
func collectText(root *goquery.Selection) string {
	var parts []string
	root.Find(textSelector).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "li" && s.Find("p").Length() > 0 {
			return
		}
		if text := CleanText(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// keepCode applies the code size bounds and count cap, assigning 1-based order.
func keepCode(examples []models.CodeExample, code, language string, opts Options) []models.CodeExample {
	if len(examples) >= opts.MaxCodeExamples {
		return examples
	}
	code = strings.TrimSpace(code)
	if len(code) <= opts.MinCodeLength || len(code) >= opts.MaxCodeLength {
		return examples
	}
	return append(examples, models.CodeExample{
		Language:   language,
		Code:       code,
		OrderIndex: len(examples) + 1,
	})
}

// buildContent caps the text and derives word count and reading time from
// the capped body.
func buildContent(sourceURL string, root *goquery.Selection, code []models.CodeExample, opts Options) *models.SectionContent {
	text := Truncate(collectText(root), opts.ContentCap)
	words := WordCount(text)
	html, _ := root.Html()

	return &models.SectionContent{
		RawText:          text,
		SourceURL:        sourceURL,
		EstimatedMinutes: EstimateMinutes(words),
		CodeExamples:     code,
		WordCount:        words,
		HTML:             html,
	}
}

func parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
