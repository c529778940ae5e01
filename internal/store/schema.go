package store

// Schema v1 - Initial database schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Chapters (surahs), keyed by their canonical number
CREATE TABLE IF NOT EXISTS chapters (
  number INTEGER PRIMARY KEY,
  name_arabic TEXT NOT NULL,
  name_transliteration TEXT NOT NULL,
  name_meaning TEXT NOT NULL,
  verse_count INTEGER NOT NULL,
  revelation TEXT NOT NULL,
  bookmarked INTEGER NOT NULL DEFAULT 0,
  memorized INTEGER NOT NULL DEFAULT 0,
  queued_next INTEGER NOT NULL DEFAULT 0,
  memorized_at DATETIME,
  last_accessed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_chapters_bookmarked ON chapters(bookmarked);
CREATE INDEX IF NOT EXISTS idx_chapters_memorized ON chapters(memorized);

-- Verses (ayahs), owned by their chapter
CREATE TABLE IF NOT EXISTS verses (
  chapter_number INTEGER NOT NULL REFERENCES chapters(number) ON DELETE CASCADE,
  verse_number INTEGER NOT NULL,
  text_arabic TEXT NOT NULL,
  transliteration TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (chapter_number, verse_number)
);

-- Translations, one row per (verse, catalog edition)
CREATE TABLE IF NOT EXISTS translations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  chapter_number INTEGER NOT NULL,
  verse_number INTEGER NOT NULL,
  catalog_id INTEGER NOT NULL,
  language_code TEXT NOT NULL,
  source_name TEXT NOT NULL,
  text TEXT NOT NULL,
  UNIQUE (chapter_number, verse_number, catalog_id),
  FOREIGN KEY (chapter_number, verse_number)
    REFERENCES verses(chapter_number, verse_number) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_translations_catalog ON translations(catalog_id);

-- Singleton user settings row (id is always 1)
CREATE TABLE IF NOT EXISTS settings (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  primary_translation_id INTEGER NOT NULL DEFAULT 0,
  primary_language TEXT NOT NULL DEFAULT '',
  secondary_translation_id INTEGER NOT NULL DEFAULT 0,
  secondary_language TEXT NOT NULL DEFAULT '',
  reciter_id INTEGER NOT NULL DEFAULT 7,
  wifi_only INTEGER NOT NULL DEFAULT 0,
  show_transliteration INTEGER NOT NULL DEFAULT 1,
  notification_time TEXT NOT NULL DEFAULT '',
  theme TEXT NOT NULL DEFAULT 'system',
  last_chapter INTEGER NOT NULL DEFAULT 0,
  last_position_secs REAL NOT NULL DEFAULT 0
);
`

// Schema v2 - Catalog cache tables (remote catalog lookups)
const schemaV2 = `
CREATE TABLE IF NOT EXISTS catalog_cache (
  catalog TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  cached_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
