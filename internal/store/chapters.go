package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/hifz/internal/util"
)

// UpsertChapter inserts or updates a chapter's metadata.
// User flags and timestamps on an existing row are preserved.
func (s *Store) UpsertChapter(c *Chapter) error {
	_, err := s.db.Exec(`
		INSERT INTO chapters (number, name_arabic, name_transliteration, name_meaning, verse_count, revelation)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			name_arabic = excluded.name_arabic,
			name_transliteration = excluded.name_transliteration,
			name_meaning = excluded.name_meaning,
			verse_count = excluded.verse_count,
			revelation = excluded.revelation
		`, c.Number, c.NameArabic, c.NameTransliteration, c.NameMeaning, c.VerseCount, c.Revelation)

	if err != nil {
		return fmt.Errorf("%w: failed to upsert chapter %d: %v", util.ErrStorage, c.Number, err)
	}

	return nil
}

const chapterColumns = `number, name_arabic, name_transliteration, name_meaning,
       verse_count, revelation, bookmarked, memorized, queued_next,
       memorized_at, last_accessed_at`

func scanChapter(row interface{ Scan(...any) error }) (*Chapter, error) {
	c := &Chapter{}
	var memorizedAt, lastAccessedAt sql.NullTime
	err := row.Scan(
		&c.Number, &c.NameArabic, &c.NameTransliteration, &c.NameMeaning,
		&c.VerseCount, &c.Revelation, &c.Bookmarked, &c.Memorized, &c.QueuedNext,
		&memorizedAt, &lastAccessedAt,
	)
	if err != nil {
		return nil, err
	}
	if memorizedAt.Valid {
		t := memorizedAt.Time
		c.MemorizedAt = &t
	}
	if lastAccessedAt.Valid {
		t := lastAccessedAt.Time
		c.LastAccessedAt = &t
	}
	return c, nil
}

// GetChapter retrieves a chapter by number, or nil if absent
func (s *Store) GetChapter(number int) (*Chapter, error) {
	row := s.db.QueryRow(`SELECT `+chapterColumns+` FROM chapters WHERE number = ?`, number)
	c, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter %d: %w", number, err)
	}
	return c, nil
}

// ListChapters retrieves all chapters in ascending number order
func (s *Store) ListChapters() ([]*Chapter, error) {
	rows, err := s.db.Query(`SELECT ` + chapterColumns + ` FROM chapters ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, c)
	}

	return chapters, rows.Err()
}

// SetBookmarked toggles the bookmark flag on a chapter
func (s *Store) SetBookmarked(number int, bookmarked bool) error {
	return s.setFlag(number, "bookmarked", bookmarked)
}

// SetMemorized marks a chapter memorized or not. Marking memorized records
// the timestamp; clearing the flag clears it.
func (s *Store) SetMemorized(number int, memorized bool) error {
	var memorizedAt any
	if memorized {
		memorizedAt = time.Now()
	}
	res, err := s.db.Exec(`
		UPDATE chapters SET memorized = ?, memorized_at = ? WHERE number = ?
	`, memorized, memorizedAt, number)
	if err != nil {
		return fmt.Errorf("%w: failed to update memorized for chapter %d: %v", util.ErrStorage, number, err)
	}
	return requireRow(res, number)
}

// SetQueuedNext marks a chapter as the next one to memorize. At most one
// chapter may carry the flag, so a single statement sets it on the target
// and clears it everywhere else.
func (s *Store) SetQueuedNext(number int) error {
	res, err := s.db.Exec(`
		UPDATE chapters SET queued_next = (number = ?)
	`, number)
	if err != nil {
		return fmt.Errorf("%w: failed to set queued-next for chapter %d: %v", util.ErrStorage, number, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("chapter %d: %w", number, util.ErrNotFound)
	}
	return nil
}

// ClearQueuedNext removes the queued-next flag from all chapters
func (s *Store) ClearQueuedNext() error {
	_, err := s.db.Exec(`UPDATE chapters SET queued_next = 0`)
	if err != nil {
		return fmt.Errorf("%w: failed to clear queued-next: %v", util.ErrStorage, err)
	}
	return nil
}

// QueuedNextChapter returns the chapter currently queued next, or nil
func (s *Store) QueuedNextChapter() (*Chapter, error) {
	row := s.db.QueryRow(`SELECT ` + chapterColumns + ` FROM chapters WHERE queued_next = 1`)
	c, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queued-next chapter: %w", err)
	}
	return c, nil
}

// TouchLastAccessed records that a chapter was opened
func (s *Store) TouchLastAccessed(number int) error {
	_, err := s.db.Exec(`
		UPDATE chapters SET last_accessed_at = ? WHERE number = ?
	`, time.Now(), number)
	if err != nil {
		return fmt.Errorf("%w: failed to touch chapter %d: %v", util.ErrStorage, number, err)
	}
	return nil
}

// CountMemorized returns the number of memorized chapters
func (s *Store) CountMemorized() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chapters WHERE memorized = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memorized chapters: %w", err)
	}
	return count, nil
}

func (s *Store) setFlag(number int, column string, value bool) error {
	res, err := s.db.Exec(`UPDATE chapters SET `+column+` = ? WHERE number = ?`, value, number)
	if err != nil {
		return fmt.Errorf("%w: failed to update %s for chapter %d: %v", util.ErrStorage, column, number, err)
	}
	return requireRow(res, number)
}

func requireRow(res sql.Result, number int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return fmt.Errorf("chapter %d: %w", number, util.ErrNotFound)
	}
	return nil
}
