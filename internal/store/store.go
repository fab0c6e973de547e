// Package store persists languages, sections and their attached resources in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mfenderov/doculens/pkg/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a language or section does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed persistent store.
type Store struct {
	db   *sql.DB
	path string
}

// openDB opens a SQLite database at the given path.
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return sqlDB, nil
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	sqlDB, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: sqlDB, path: path}
	if _, err := s.db.Exec(schema); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// GetLanguageByName looks a language up by its exact name.
func (s *Store) GetLanguageByName(ctx context.Context, name string) (*models.Language, error) {
	return s.getLanguage(ctx, "name", name)
}

// GetLanguage looks a language up by ID.
func (s *Store) GetLanguage(ctx context.Context, id string) (*models.Language, error) {
	return s.getLanguage(ctx, "id", id)
}

func (s *Store) getLanguage(ctx context.Context, column, value string) (*models.Language, error) {
	var l models.Language
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, COALESCE(description, ''), COALESCE(official_doc_url, ''),
		       COALESCE(logo_url, ''), created_at
		FROM languages WHERE `+column+` = ?`, value).Scan(
		&l.ID, &l.Name, &l.Slug, &l.Description, &l.OfficialDocURL, &l.LogoURL, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("language %q: %w", value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get language: %w", err)
	}
	return &l, nil
}

// ListLanguages returns all languages ordered by name.
func (s *Store) ListLanguages(ctx context.Context) ([]models.Language, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, COALESCE(description, ''), COALESCE(official_doc_url, ''),
		       COALESCE(logo_url, ''), created_at
		FROM languages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	defer rows.Close()

	var languages []models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.Slug, &l.Description, &l.OfficialDocURL, &l.LogoURL, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, l)
	}
	return languages, rows.Err()
}

// CreateLanguage inserts l, assigning an ID when empty.
func (s *Store) CreateLanguage(ctx context.Context, l *models.Language) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO languages (id, name, slug, description, official_doc_url, logo_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Slug, l.Description, l.OfficialDocURL, l.LogoURL)
	if err != nil {
		return fmt.Errorf("failed to create language: %w", err)
	}
	return nil
}

const sectionColumns = `id, language_id, title, slug, content_raw, COALESCE(content_summary, ''),
	source_url, order_index, estimated_minutes, difficulty, is_quick_path, is_deep_path, created_at`

func scanSection(row interface{ Scan(...any) error }) (models.Section, error) {
	var sec models.Section
	var difficulty string
	err := row.Scan(&sec.ID, &sec.LanguageID, &sec.Title, &sec.Slug, &sec.ContentRaw, &sec.Summary,
		&sec.SourceURL, &sec.OrderIndex, &sec.EstimatedMinutes, &difficulty,
		&sec.IsQuickPath, &sec.IsDeepPath, &sec.CreatedAt)
	sec.Difficulty = models.Difficulty(difficulty)
	return sec, err
}

// ListSections returns a language's sections in index order.
func (s *Store) ListSections(ctx context.Context, languageID string) ([]models.Section, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sectionColumns+`
		FROM sections WHERE language_id = ? ORDER BY order_index, created_at`, languageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// GetSection returns a section by ID.
func (s *Store) GetSection(ctx context.Context, id string) (*models.Section, error) {
	sec, err := scanSection(s.db.QueryRowContext(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("section %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return &sec, nil
}

// ListCodeExamples returns a section's code examples in order.
func (s *Store) ListCodeExamples(ctx context.Context, sectionID string) ([]models.CodeExample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT language, code, order_index FROM code_examples
		WHERE section_id = ? ORDER BY order_index, id`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list code examples: %w", err)
	}
	defer rows.Close()

	var examples []models.CodeExample
	for rows.Next() {
		var ex models.CodeExample
		if err := rows.Scan(&ex.Language, &ex.Code, &ex.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan code example: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

// ListVideos returns a section's videos in order.
func (s *Store) ListVideos(ctx context.Context, sectionID string) ([]models.VideoCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, video_url, platform, COALESCE(channel_name, ''), COALESCE(thumbnail_url, ''),
		       COALESCE(duration_seconds, 0), COALESCE(views, 0), order_index
		FROM video_resources WHERE section_id = ? ORDER BY order_index, id`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoCandidate
	for rows.Next() {
		var v models.VideoCandidate
		if err := rows.Scan(&v.Title, &v.URL, &v.Platform, &v.ChannelName, &v.ThumbnailURL,
			&v.DurationSeconds, &v.Views, &v.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ListProblems returns a section's practice problems in order.
func (s *Store) ListProblems(ctx context.Context, sectionID string) ([]models.ProblemCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, problem_url, platform, COALESCE(difficulty, ''), COALESCE(description, ''),
		       COALESCE(topics, '[]'), order_index
		FROM practice_problems WHERE section_id = ? ORDER BY order_index, id`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	defer rows.Close()

	var problems []models.ProblemCandidate
	for rows.Next() {
		var p models.ProblemCandidate
		var topics string
		if err := rows.Scan(&p.Title, &p.URL, &p.Platform, &p.Difficulty, &p.Description, &topics, &p.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		if err := json.Unmarshal([]byte(topics), &p.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode problem topics: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// CountVideos returns how many videos are attached to a section.
func (s *Store) CountVideos(ctx context.Context, sectionID string) (int, error) {
	return s.count(ctx, "video_resources", sectionID)
}

// CountProblems returns how many practice problems are attached to a section.
func (s *Store) CountProblems(ctx context.Context, sectionID string) (int, error) {
	return s.count(ctx, "practice_problems", sectionID)
}

func (s *Store) count(ctx context.Context, table, sectionID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE section_id = ?`, sectionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
