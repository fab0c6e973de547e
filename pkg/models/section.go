package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Difficulty is the estimated difficulty of a documentation section.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// SectionStub is the per-section metadata harvested from a documentation index.
type SectionStub struct {
	Title      string     `json:"title"`
	SourceURL  string     `json:"source_url"`
	Slug       string     `json:"slug"`
	OrderIndex int        `json:"order_index"`
	Difficulty Difficulty `json:"difficulty"`
}

// CodeExample is a code snippet lifted from a section page.
type CodeExample struct {
	Language   string `json:"language"`
	Code       string `json:"code"`
	OrderIndex int    `json:"order_index"`
}

// SectionContent is the normalized content of a single section page.
type SectionContent struct {
	RawText          string        `json:"raw_text"`
	SourceURL        string        `json:"source_url"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	CodeExamples     []CodeExample `json:"code_examples,omitempty"`
	WordCount        int           `json:"word_count"`
	HTML             string        `json:"-"` // main content container, kept for archiving
}

// ScrapedSection merges index metadata with the scraped page content.
type ScrapedSection struct {
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	SourceURL        string        `json:"source_url"`
	OrderIndex       int           `json:"order_index"`
	Difficulty       Difficulty    `json:"difficulty"`
	RawText          string        `json:"raw_text"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	CodeExamples     []CodeExample `json:"code_examples,omitempty"`
	WordCount        int           `json:"word_count"`
	HTML             string        `json:"-"`
}

// MergeSection combines a stub with its content. Content fields win where both
// carry a value, matching how the index metadata is refined by the page fetch.
func MergeSection(stub SectionStub, content SectionContent) ScrapedSection {
	sourceURL := stub.SourceURL
	if content.SourceURL != "" {
		sourceURL = content.SourceURL
	}
	return ScrapedSection{
		Title:            stub.Title,
		Slug:             stub.Slug,
		SourceURL:        sourceURL,
		OrderIndex:       stub.OrderIndex,
		Difficulty:       stub.Difficulty,
		RawText:          content.RawText,
		EstimatedMinutes: content.EstimatedMinutes,
		CodeExamples:     content.CodeExamples,
		WordCount:        content.WordCount,
		HTML:             content.HTML,
	}
}

// VideoCandidate is a tutorial video returned by the video matcher.
type VideoCandidate struct {
	Title           string `json:"title"`
	URL             string `json:"video_url"`
	Platform        string `json:"platform"`
	ChannelName     string `json:"channel_name,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	Views           int64  `json:"views"`
	OrderIndex      int    `json:"order_index"`
}

// ProblemCandidate is a practice problem returned by the problem matcher.
type ProblemCandidate struct {
	Title       string   `json:"title"`
	URL         string   `json:"problem_url"`
	Platform    string   `json:"platform"`
	Difficulty  string   `json:"difficulty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	OrderIndex  int      `json:"order_index"`
}

// SectionDocument is the search-index representation of a stored section.
type SectionDocument struct {
	ID         string    `json:"id"`
	LanguageID string    `json:"language_id"`
	Language   string    `json:"language"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	URL        string    `json:"url"`
	Content    string    `json:"content"`
	Summary    string    `json:"summary,omitempty"`
	Difficulty string    `json:"difficulty"`
	OrderIndex int       `json:"order_index"`
	IndexedAt  time.Time `json:"indexed_at"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// GenerateDocumentID creates a deterministic ID from URL.
// The ID is a SHA-256 hash (first 16 chars) of the URL.
func GenerateDocumentID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}

// Language is a documented programming language.
type Language struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	OfficialDocURL string    `json:"official_doc_url"`
	LogoURL        string    `json:"logo_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// Section is a stored documentation section.
type Section struct {
	ID               string     `json:"id"`
	LanguageID       string     `json:"language_id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	ContentRaw       string     `json:"content_raw"`
	Summary          string     `json:"content_summary"`
	SourceURL        string     `json:"source_url"`
	OrderIndex       int        `json:"order_index"`
	EstimatedMinutes int        `json:"estimated_time_minutes"`
	Difficulty       Difficulty `json:"difficulty"`
	IsQuickPath      bool       `json:"is_quick_path"`
	IsDeepPath       bool       `json:"is_deep_path"`
	CreatedAt        time.Time  `json:"created_at"`
}
