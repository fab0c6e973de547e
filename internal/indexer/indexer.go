// Package indexer consumes stored-section events and mirrors each section into
// the search index and, when configured, the Markdown archive.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mfenderov/doculens/internal/events"
	"github.com/mfenderov/doculens/internal/processor"
	"github.com/mfenderov/doculens/internal/storage"
	"github.com/mfenderov/doculens/pkg/models"
)

// SearchIndex receives section documents.
type SearchIndex interface {
	IndexSection(ctx context.Context, doc models.SectionDocument) error
	Refresh(ctx context.Context) error
}

// Embedder turns text into a vector for hybrid search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Archive stores rendered Markdown and a manifest per run.
type Archive interface {
	PutMarkdown(ctx context.Context, prefix, filename, content string) error
	PutMetadata(ctx context.Context, prefix string, meta storage.ArchiveMetadata) error
}

// Stats summarizes one consumer run.
type Stats struct {
	Indexed  int
	Archived int
	Prefix   string // Archive prefix, empty when archiving is off
	Errors   []string
}

// Indexer fans stored sections out to the optional sinks. Any sink may be nil.
type Indexer struct {
	index     SearchIndex
	embed     Embedder
	archive   Archive
	processor *processor.Processor
}

// New creates an Indexer.
func New(index SearchIndex, embed Embedder, archive Archive) *Indexer {
	return &Indexer{
		index:     index,
		embed:     embed,
		archive:   archive,
		processor: processor.New(),
	}
}

// Enabled reports whether any sink is configured.
func (ix *Indexer) Enabled() bool {
	return ix.index != nil || ix.archive != nil
}

// Run consumes events until ch is closed. Sink failures are logged and
// recorded in Stats; they never stop the consumer. The archive manifest for
// the run is written once the channel closes.
func (ix *Indexer) Run(ctx context.Context, language, sourceURL string, ch <-chan events.SectionStored) Stats {
	var stats Stats
	var manifest storage.ArchiveMetadata

	start := time.Now()
	if ix.archive != nil {
		stats.Prefix = storage.RunPrefix(language, start, uuid.NewString()[:8])
		manifest = storage.ArchiveMetadata{
			Language:  language,
			SourceURL: sourceURL,
			Timestamp: start.UTC().Format(time.RFC3339),
		}
	}

	for event := range ch {
		if ix.index != nil {
			if err := ix.indexSection(ctx, event); err != nil {
				slog.Error("failed to index section", "id", event.SectionID, "error", err)
				stats.Errors = append(stats.Errors, err.Error())
			} else {
				stats.Indexed++
			}
		}

		if ix.archive != nil {
			file, err := ix.archiveSection(ctx, stats.Prefix, event)
			if err != nil {
				slog.Warn("failed to archive section", "id", event.SectionID, "error", err)
				stats.Errors = append(stats.Errors, err.Error())
				continue
			}
			stats.Archived++
			manifest.Sections = append(manifest.Sections, storage.ArchivedSection{
				SectionID: event.SectionID,
				Title:     event.Title,
				URL:       event.SourceURL,
				File:      file,
			})
		}
	}

	if ix.index != nil && stats.Indexed > 0 {
		if err := ix.index.Refresh(ctx); err != nil {
			slog.Warn("failed to refresh search index", "error", err)
		}
	}

	if ix.archive != nil && stats.Archived > 0 {
		manifest.SectionCount = len(manifest.Sections)
		if err := ix.archive.PutMetadata(ctx, stats.Prefix, manifest); err != nil {
			slog.Warn("failed to write archive manifest", "prefix", stats.Prefix, "error", err)
			stats.Errors = append(stats.Errors, err.Error())
		}
	}

	slog.Info("indexing complete", "language", language,
		"indexed", stats.Indexed, "archived", stats.Archived, "errors", len(stats.Errors))
	return stats
}

// Document converts a stored-section event to its search representation.
func Document(event events.SectionStored) models.SectionDocument {
	return models.SectionDocument{
		ID:         event.SectionID,
		LanguageID: event.LanguageID,
		Language:   event.Language,
		Title:      event.Title,
		Slug:       event.Slug,
		URL:        event.SourceURL,
		Content:    event.Content,
		Summary:    event.Summary,
		Difficulty: event.Difficulty,
		OrderIndex: event.OrderIndex,
		IndexedAt:  time.Now(),
	}
}

func (ix *Indexer) indexSection(ctx context.Context, event events.SectionStored) error {
	doc := Document(event)

	if ix.embed != nil {
		text := strings.Join([]string{doc.Title, doc.Summary, doc.Content}, "\n\n")
		embedding, err := ix.embed.Embed(ctx, text)
		if err != nil {
			slog.Warn("failed to generate embedding", "id", doc.ID, "error", err)
		} else {
			doc.Embedding = embedding
		}
	}

	return ix.index.IndexSection(ctx, doc)
}

func (ix *Indexer) archiveSection(ctx context.Context, prefix string, event events.SectionStored) (string, error) {
	if event.HTML == "" {
		return "", fmt.Errorf("section %s has no HTML to archive", event.SectionID)
	}

	markdown, err := ix.processor.Render(processor.Page{
		Title:     event.Title,
		SourceURL: event.SourceURL,
		Summary:   event.Summary,
		HTML:      event.HTML,
	})
	if err != nil {
		return "", err
	}

	file := models.GenerateDocumentID(event.SourceURL) + ".md"
	if err := ix.archive.PutMarkdown(ctx, prefix, file, markdown); err != nil {
		return "", err
	}
	return file, nil
}
