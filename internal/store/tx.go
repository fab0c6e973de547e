package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mfenderov/doculens/pkg/models"
)

// Tx is a unit of work against the store. Nothing is visible to other
// readers until Commit.
type Tx interface {
	// SaveSection inserts sec, or refreshes the existing section with the same
	// language and source URL. It sets sec.ID and drops the section's old code
	// examples so they can be re-added.
	SaveSection(ctx context.Context, sec *models.Section) error
	InsertCodeExample(ctx context.Context, sectionID string, ex models.CodeExample) error
	// AppendVideo attaches v after the section's existing videos.
	AppendVideo(ctx context.Context, sectionID string, v models.VideoCandidate) error
	// AppendProblem attaches p after the section's existing problems.
	AppendProblem(ctx context.Context, sectionID string, p models.ProblemCandidate) error
	Commit() error
	Rollback() error
}

type sqlTx struct {
	tx *sql.Tx
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{tx: tx}, nil
}

func (t *sqlTx) SaveSection(ctx context.Context, sec *models.Section) error {
	id := sec.ID
	if id == "" {
		id = uuid.NewString()
	}

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO sections (id, language_id, title, slug, content_raw, content_summary, source_url,
		                      order_index, estimated_minutes, difficulty, is_quick_path, is_deep_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (language_id, source_url) DO UPDATE SET
			title = excluded.title,
			slug = excluded.slug,
			content_raw = excluded.content_raw,
			content_summary = excluded.content_summary,
			order_index = excluded.order_index,
			estimated_minutes = excluded.estimated_minutes,
			difficulty = excluded.difficulty,
			is_quick_path = excluded.is_quick_path,
			is_deep_path = excluded.is_deep_path
		RETURNING id`,
		id, sec.LanguageID, sec.Title, sec.Slug, sec.ContentRaw, sec.Summary, sec.SourceURL,
		sec.OrderIndex, sec.EstimatedMinutes, string(sec.Difficulty), sec.IsQuickPath, sec.IsDeepPath,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to save section: %w", err)
	}
	sec.ID = id

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM code_examples WHERE section_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear code examples: %w", err)
	}
	return nil
}

func (t *sqlTx) InsertCodeExample(ctx context.Context, sectionID string, ex models.CodeExample) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO code_examples (section_id, language, code, order_index) VALUES (?, ?, ?, ?)`,
		sectionID, ex.Language, ex.Code, ex.OrderIndex)
	if err != nil {
		return fmt.Errorf("failed to insert code example: %w", err)
	}
	return nil
}

func (t *sqlTx) AppendVideo(ctx context.Context, sectionID string, v models.VideoCandidate) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO video_resources (section_id, title, video_url, platform, channel_name, thumbnail_url,
		                             duration_seconds, views, order_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?,
		        (SELECT COALESCE(MAX(order_index) + 1, 0) FROM video_resources WHERE section_id = ?))`,
		sectionID, v.Title, v.URL, v.Platform, v.ChannelName, v.ThumbnailURL,
		v.DurationSeconds, v.Views, sectionID)
	if err != nil {
		return fmt.Errorf("failed to append video: %w", err)
	}
	return nil
}

func (t *sqlTx) AppendProblem(ctx context.Context, sectionID string, p models.ProblemCandidate) error {
	topics, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode problem topics: %w", err)
	}
	if p.Tags == nil {
		topics = []byte("[]")
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO practice_problems (section_id, title, problem_url, platform, difficulty, description,
		                               topics, order_index)
		VALUES (?, ?, ?, ?, ?, ?, ?,
		        (SELECT COALESCE(MAX(order_index) + 1, 0) FROM practice_problems WHERE section_id = ?))`,
		sectionID, p.Title, p.URL, p.Platform, p.Difficulty, p.Description, string(topics), sectionID)
	if err != nil {
		return fmt.Errorf("failed to append problem: %w", err)
	}
	return nil
}

func (t *sqlTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}
