package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/hifz/internal/util"
)

// PurgeTranslation removes all rows for a translation edition across all
// verses. The delete runs in its own transaction so it is all-or-nothing.
func (s *Store) PurgeTranslation(catalogID int) error {
	err := s.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM translations WHERE catalog_id = ?", catalogID)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to purge translation %d: %v", util.ErrStorage, catalogID, err)
	}
	return nil
}

// UpsertTranslationTx inserts or updates a translation row within a
// transaction, keyed by (verse, catalog id)
func (s *Store) UpsertTranslationTx(tx *sql.Tx, t *Translation) error {
	_, err := tx.Exec(`
		INSERT INTO translations (chapter_number, verse_number, catalog_id, language_code, source_name, text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chapter_number, verse_number, catalog_id) DO UPDATE SET
			language_code = excluded.language_code,
			source_name = excluded.source_name,
			text = excluded.text
		`, t.ChapterNumber, t.VerseNumber, t.CatalogID, t.LanguageCode, t.SourceName, t.Text)

	if err != nil {
		return fmt.Errorf("%w: failed to upsert translation %d for verse %d:%d: %v",
			util.ErrStorage, t.CatalogID, t.ChapterNumber, t.VerseNumber, err)
	}

	return nil
}

// GetTranslations retrieves all translations of a single verse
func (s *Store) GetTranslations(chapterNumber, verseNumber int) ([]*Translation, error) {
	rows, err := s.db.Query(`
		SELECT id, chapter_number, verse_number, catalog_id, language_code, source_name, text
		FROM translations
		WHERE chapter_number = ? AND verse_number = ?
		ORDER BY catalog_id
	`, chapterNumber, verseNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query translations: %w", err)
	}
	defer rows.Close()

	return scanTranslations(rows)
}

// GetChapterTranslation retrieves one edition's rows for a whole chapter
// in verse order
func (s *Store) GetChapterTranslation(chapterNumber, catalogID int) ([]*Translation, error) {
	rows, err := s.db.Query(`
		SELECT id, chapter_number, verse_number, catalog_id, language_code, source_name, text
		FROM translations
		WHERE chapter_number = ? AND catalog_id = ?
		ORDER BY verse_number
	`, chapterNumber, catalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapter translation: %w", err)
	}
	defer rows.Close()

	return scanTranslations(rows)
}

// CountTranslationRows returns the number of stored rows for an edition
func (s *Store) CountTranslationRows(catalogID int) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM translations WHERE catalog_id = ?", catalogID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count translation rows: %w", err)
	}
	return count, nil
}

// ListDownloadedTranslations returns the distinct editions present in the
// store with their row counts
func (s *Store) ListDownloadedTranslations() (map[int]int, error) {
	rows, err := s.db.Query(`
		SELECT catalog_id, COUNT(*) FROM translations GROUP BY catalog_id ORDER BY catalog_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloaded translations: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan translation count: %w", err)
		}
		counts[id] = n
	}

	return counts, rows.Err()
}

func scanTranslations(rows *sql.Rows) ([]*Translation, error) {
	var translations []*Translation
	for rows.Next() {
		t := &Translation{}
		err := rows.Scan(&t.ID, &t.ChapterNumber, &t.VerseNumber, &t.CatalogID,
			&t.LanguageCode, &t.SourceName, &t.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		translations = append(translations, t)
	}
	return translations, rows.Err()
}
