package store

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS languages (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL,
    description TEXT,
    official_doc_url TEXT,
    logo_url TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sections (
    id TEXT PRIMARY KEY,
    language_id TEXT NOT NULL,
    title TEXT NOT NULL CHECK (title <> ''),
    slug TEXT NOT NULL,
    content_raw TEXT NOT NULL,
    content_summary TEXT,
    source_url TEXT NOT NULL,
    order_index INTEGER NOT NULL,
    estimated_minutes INTEGER NOT NULL DEFAULT 30,
    difficulty TEXT NOT NULL DEFAULT 'medium',
    is_quick_path BOOLEAN NOT NULL DEFAULT 0,
    is_deep_path BOOLEAN NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (language_id, source_url),
    FOREIGN KEY (language_id) REFERENCES languages(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sections_language_order ON sections(language_id, order_index);

CREATE TABLE IF NOT EXISTS code_examples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    section_id TEXT NOT NULL,
    language TEXT NOT NULL,
    code TEXT NOT NULL,
    order_index INTEGER NOT NULL,
    FOREIGN KEY (section_id) REFERENCES sections(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_code_examples_section ON code_examples(section_id, order_index);

CREATE TABLE IF NOT EXISTS video_resources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    section_id TEXT NOT NULL,
    title TEXT NOT NULL,
    video_url TEXT NOT NULL,
    platform TEXT NOT NULL,
    channel_name TEXT,
    thumbnail_url TEXT,
    duration_seconds INTEGER,
    views INTEGER,
    order_index INTEGER NOT NULL,
    FOREIGN KEY (section_id) REFERENCES sections(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_video_resources_section ON video_resources(section_id, order_index);

CREATE TABLE IF NOT EXISTS practice_problems (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    section_id TEXT NOT NULL,
    title TEXT NOT NULL,
    problem_url TEXT NOT NULL,
    platform TEXT NOT NULL,
    difficulty TEXT,
    description TEXT,
    topics TEXT, -- JSON array of tag names
    order_index INTEGER NOT NULL,
    FOREIGN KEY (section_id) REFERENCES sections(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_practice_problems_section ON practice_problems(section_id, order_index);
`
