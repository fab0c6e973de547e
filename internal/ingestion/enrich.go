package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfenderov/doculens/internal/leetcode"
	"github.com/mfenderov/doculens/internal/metrics"
	"github.com/mfenderov/doculens/internal/store"
	"github.com/mfenderov/doculens/internal/youtube"
	"github.com/mfenderov/doculens/pkg/models"
)

// MaxResourcesPerSection bounds the per-section maximum accepted by enrichment.
const MaxResourcesPerSection = 10

// VideoSearcher finds tutorial videos for a query.
type VideoSearcher interface {
	Search(ctx context.Context, query string, maxResults int, order youtube.Order) ([]models.VideoCandidate, error)
}

// ProblemSearcher finds practice problems for a tag. It never fails.
type ProblemSearcher interface {
	Search(ctx context.Context, tag, difficulty string, limit int) []models.ProblemCandidate
}

// WithVideos attaches the video matcher used by EnrichWithVideos.
func (o *Orchestrator) WithVideos(v VideoSearcher) *Orchestrator {
	o.videos = v
	return o
}

// WithProblems attaches the problem matcher used by EnrichWithProblems.
func (o *Orchestrator) WithProblems(p ProblemSearcher) *Orchestrator {
	o.problems = p
	return o
}

// EnrichWithVideos attaches up to maxPerSection tutorial videos to every
// section of the language and returns how many were added. Sections that
// already hold maxPerSection videos are left alone; others get only the
// shortfall, appended after their existing videos. All additions commit
// together at the end of the pass.
func (o *Orchestrator) EnrichWithVideos(ctx context.Context, languageID string, maxPerSection int) (int, error) {
	if o.videos == nil {
		return 0, fmt.Errorf("%w: no video matcher configured", ErrInvalidParameter)
	}

	return o.enrich(ctx, "videos", languageID, maxPerSection, o.store.CountVideos,
		func(ctx context.Context, tx store.Tx, lang *models.Language, sec models.Section, want int) (int, error) {
			query := youtube.TutorialQuery(lang.Name, sec.Title)
			videos, err := o.videos.Search(ctx, query, want, youtube.OrderRelevance)
			if err != nil {
				slog.Warn("video search failed", "section", sec.Title, "error", err)
				return 0, nil
			}

			added := 0
			for _, v := range videos {
				if added >= want {
					break
				}
				if err := tx.AppendVideo(ctx, sec.ID, v); err != nil {
					return added, err
				}
				added++
			}
			return added, nil
		})
}

// EnrichWithProblems attaches up to maxPerSection practice problems to every
// section of the language, following the same rules as EnrichWithVideos. The
// problem tag is derived from the section title.
func (o *Orchestrator) EnrichWithProblems(ctx context.Context, languageID string, maxPerSection int) (int, error) {
	if o.problems == nil {
		return 0, fmt.Errorf("%w: no problem matcher configured", ErrInvalidParameter)
	}

	return o.enrich(ctx, "problems", languageID, maxPerSection, o.store.CountProblems,
		func(ctx context.Context, tx store.Tx, _ *models.Language, sec models.Section, want int) (int, error) {
			tag := leetcode.TagForTitle(sec.Title)
			added := 0
			for _, p := range o.problems.Search(ctx, tag, "", want) {
				if added >= want {
					break
				}
				if err := tx.AppendProblem(ctx, sec.ID, p); err != nil {
					return added, err
				}
				added++
			}
			return added, nil
		})
}

type countFunc func(ctx context.Context, sectionID string) (int, error)

type attachFunc func(ctx context.Context, tx store.Tx, lang *models.Language, sec models.Section, want int) (int, error)

// enrich runs one all-or-nothing pass over a language's sections.
func (o *Orchestrator) enrich(ctx context.Context, kind, languageID string, maxPerSection int, count countFunc, attach attachFunc) (int, error) {
	if maxPerSection < 1 || maxPerSection > MaxResourcesPerSection {
		return 0, fmt.Errorf("%w: max per section must be between 1 and %d, got %d",
			ErrInvalidParameter, MaxResourcesPerSection, maxPerSection)
	}

	lang, err := o.store.GetLanguage(ctx, languageID)
	if err != nil {
		return 0, err
	}
	sections, err := o.store.ListSections(ctx, languageID)
	if err != nil {
		return 0, err
	}

	slog.Info("starting enrichment", "kind", kind, "language", lang.Name, "sections", len(sections))

	// Existing counts are read before the transaction opens; the store allows
	// a single connection.
	wants := make([]int, len(sections))
	for i, sec := range sections {
		have, err := count(ctx, sec.ID)
		if err != nil {
			return 0, err
		}
		wants[i] = maxPerSection - have
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for i, sec := range sections {
		if wants[i] <= 0 {
			slog.Debug("section already enriched", "kind", kind, "section", sec.Title)
			continue
		}
		added, err := attach(ctx, tx, lang, sec, wants[i])
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to enrich section %q with %s: %w", sec.Title, kind, err)
		}
		total += added
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	metrics.ResourcesAdded.WithLabelValues(kind).Add(float64(total))
	slog.Info("enrichment complete", "kind", kind, "language", lang.Name, "added", total)
	return total, nil
}
