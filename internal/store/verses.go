package store

import (
	"database/sql"
	"fmt"

	"github.com/franz/hifz/internal/util"
)

// UpsertVerse inserts or updates a verse's text
func (s *Store) UpsertVerse(v *Verse) error {
	_, err := s.db.Exec(`
		INSERT INTO verses (chapter_number, verse_number, text_arabic, transliteration)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chapter_number, verse_number) DO UPDATE SET
			text_arabic = excluded.text_arabic,
			transliteration = excluded.transliteration
		`, v.ChapterNumber, v.VerseNumber, v.TextArabic, v.Transliteration)

	if err != nil {
		return fmt.Errorf("%w: failed to upsert verse %d:%d: %v",
			util.ErrStorage, v.ChapterNumber, v.VerseNumber, err)
	}

	return nil
}

// GetVerses retrieves all verses of a chapter in ascending verse order
func (s *Store) GetVerses(chapterNumber int) ([]*Verse, error) {
	rows, err := s.db.Query(`
		SELECT chapter_number, verse_number, text_arabic, transliteration
		FROM verses WHERE chapter_number = ?
		ORDER BY verse_number
	`, chapterNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query verses for chapter %d: %w", chapterNumber, err)
	}
	defer rows.Close()

	var verses []*Verse
	for rows.Next() {
		v := &Verse{}
		if err := rows.Scan(&v.ChapterNumber, &v.VerseNumber, &v.TextArabic, &v.Transliteration); err != nil {
			return nil, fmt.Errorf("failed to scan verse: %w", err)
		}
		verses = append(verses, v)
	}

	return verses, rows.Err()
}

// GetVerse retrieves a single verse, or nil if absent
func (s *Store) GetVerse(chapterNumber, verseNumber int) (*Verse, error) {
	v := &Verse{}
	err := s.db.QueryRow(`
		SELECT chapter_number, verse_number, text_arabic, transliteration
		FROM verses WHERE chapter_number = ? AND verse_number = ?
	`, chapterNumber, verseNumber).Scan(&v.ChapterNumber, &v.VerseNumber, &v.TextArabic, &v.Transliteration)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verse %d:%d: %w", chapterNumber, verseNumber, err)
	}

	return v, nil
}

// CountVerses returns the number of stored verses for a chapter
func (s *Store) CountVerses(chapterNumber int) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM verses WHERE chapter_number = ?", chapterNumber).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verses: %w", err)
	}
	return count, nil
}

// DeleteChapter removes a chapter and, through cascade, its verses and
// their translations
func (s *Store) DeleteChapter(number int) error {
	_, err := s.db.Exec("DELETE FROM chapters WHERE number = ?", number)
	if err != nil {
		return fmt.Errorf("%w: failed to delete chapter %d: %v", util.ErrStorage, number, err)
	}
	return nil
}
