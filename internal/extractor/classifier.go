package extractor

import (
	"strings"

	"github.com/mfenderov/doculens/pkg/models"
)

// Classifier estimates a section's difficulty from its title and position.
// Keyword matches win over position: Hard keywords first, then Medium, then
// any section at or before EasyThreshold is easy and the rest medium.
type Classifier struct {
	Hard          []string
	Medium        []string
	EasyThreshold int
}

// DefaultClassifier returns the built-in vocabularies.
func DefaultClassifier() Classifier {
	return Classifier{
		Hard: []string{
			"advanced", "decorator", "metaclass", "async", "threading",
			"generator", "iterator", "context manager", "concurrency",
			"unsafe", "macro", "lifetime", "smart pointer",
		},
		Medium: []string{
			"class", "module", "exception", "file", "package",
			"inheritance", "comprehension", "error", "trait", "generic",
			"struct", "enum", "collection", "closure",
		},
		EasyThreshold: 5,
	}
}

// WithOverrides replaces vocabularies that are set in c.
func (c Classifier) WithOverrides(hard, medium []string, easyThreshold int) Classifier {
	if len(hard) > 0 {
		c.Hard = hard
	}
	if len(medium) > 0 {
		c.Medium = medium
	}
	if easyThreshold > 0 {
		c.EasyThreshold = easyThreshold
	}
	return c
}

// Classify returns the difficulty for a section at 1-based position order.
func (c Classifier) Classify(order int, title string) models.Difficulty {
	lower := strings.ToLower(title)

	if containsAny(lower, c.Hard) {
		return models.DifficultyHard
	}
	if containsAny(lower, c.Medium) {
		return models.DifficultyMedium
	}
	if order <= c.EasyThreshold {
		return models.DifficultyEasy
	}
	return models.DifficultyMedium
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
