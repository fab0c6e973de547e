package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSlugLength caps generated slugs.
	MaxSlugLength = 50

	// WordsPerMinute is the reading speed used for time estimates.
	WordsPerMinute = 200
	// MinReadingMinutes is the floor for a section's estimated time.
	MinReadingMinutes = 10
	// ReadingStepMinutes is the granularity estimates are rounded up to.
	ReadingStepMinutes = 5
)

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9\s_-]`)
	slugSpace   = regexp.MustCompile(`[\s_]+`)
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// CleanText collapses all whitespace runs into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Slugify derives a URL-friendly slug from a title. The result contains only
// [a-z0-9-], never starts or ends with a hyphen and is at most MaxSlugLength
// bytes long.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugSpace.ReplaceAllString(slug, "-")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// Truncate caps text at limit characters (runes). Truncating an already
// truncated string is a no-op.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EstimateMinutes converts a word count into reading time, rounded up to
// ReadingStepMinutes and never below MinReadingMinutes.
func EstimateMinutes(wordCount int) int {
	minutes := (wordCount + WordsPerMinute - 1) / WordsPerMinute
	minutes = ((minutes + ReadingStepMinutes - 1) / ReadingStepMinutes) * ReadingStepMinutes
	return max(MinReadingMinutes, minutes)
}

// Preview returns the first n words of text.
func Preview(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
