package events

import "time"

// SectionStored is sent after a section's transaction commits.
type SectionStored struct {
	LanguageID string
	Language   string // Language name (e.g., "Python")
	SectionID  string
	Title      string
	Slug       string
	SourceURL  string
	Content    string // Stored plain-text body
	Summary    string
	Difficulty string
	OrderIndex int
	HTML       string // Main content container, empty when unavailable
	StoredAt   time.Time
}

// IngestionComplete is sent when a language ingestion run, including its
// indexing and enrichment, ends.
type IngestionComplete struct {
	LanguageID      string        `json:"language_id"`
	Language        string        `json:"language"`
	SourceURL       string        `json:"source_url"`
	Status          string        `json:"status"`
	SectionsScraped int           `json:"sections_scraped"`
	SectionsStored  int           `json:"sections_stored"`
	QuickPath       int           `json:"quick_path_sections"`
	Indexed         int           `json:"indexed"`
	Archived        int           `json:"archived"`
	ArchivePrefix   string        `json:"archive_prefix,omitempty"`
	VideosAdded     int           `json:"videos_added"`
	ProblemsAdded   int           `json:"problems_added"`
	Duration        time.Duration `json:"duration"`
	Errors          []string      `json:"errors,omitempty"` // Non-fatal errors encountered
}
