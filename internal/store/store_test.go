package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/franz/hifz/internal/util"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigratesAndReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	version, err := s.getSchemaVersion()
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, currentSchemaVersion)
	}
	s.Close()

	// Reopening an already-migrated database is a no-op
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
}

func TestSeedChapters(t *testing.T) {
	s := openTestStore(t)

	if err := s.SeedChapters(); err != nil {
		t.Fatalf("SeedChapters: %v", err)
	}

	chapters, err := s.ListChapters()
	if err != nil {
		t.Fatalf("ListChapters: %v", err)
	}
	if len(chapters) != ChapterCount {
		t.Fatalf("seeded %d chapters, want %d", len(chapters), ChapterCount)
	}
	if chapters[0].Number != FirstChapter || chapters[len(chapters)-1].Number != LastChapter {
		t.Errorf("chapter range %d-%d, want %d-%d",
			chapters[0].Number, chapters[len(chapters)-1].Number, FirstChapter, LastChapter)
	}

	c, err := s.GetChapter(112)
	if err != nil {
		t.Fatalf("GetChapter: %v", err)
	}
	if c == nil || c.NameTransliteration != "Al-Ikhlas" || c.VerseCount != 4 {
		t.Errorf("chapter 112 = %+v", c)
	}
}

func TestSeedPreservesFlags(t *testing.T) {
	s := openTestStore(t)

	if err := s.SeedChapters(); err != nil {
		t.Fatalf("SeedChapters: %v", err)
	}
	if err := s.SetBookmarked(103, true); err != nil {
		t.Fatalf("SetBookmarked: %v", err)
	}
	if err := s.SetMemorized(103, true); err != nil {
		t.Fatalf("SetMemorized: %v", err)
	}

	// Re-seeding refreshes metadata but must not touch user flags
	if err := s.SeedChapters(); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	c, err := s.GetChapter(103)
	if err != nil {
		t.Fatalf("GetChapter: %v", err)
	}
	if !c.Bookmarked || !c.Memorized {
		t.Errorf("flags lost after re-seed: bookmarked=%v memorized=%v", c.Bookmarked, c.Memorized)
	}
	if c.MemorizedAt == nil {
		t.Error("memorized_at not recorded")
	}
}

func TestMemorizedTimestamps(t *testing.T) {
	s := openTestStore(t)
	if err := s.SeedChapters(); err != nil {
		t.Fatalf("SeedChapters: %v", err)
	}

	if err := s.SetMemorized(100, true); err != nil {
		t.Fatalf("SetMemorized: %v", err)
	}
	c, _ := s.GetChapter(100)
	if c.MemorizedAt == nil {
		t.Fatal("memorized_at not set")
	}

	if err := s.SetMemorized(100, false); err != nil {
		t.Fatalf("clear memorized: %v", err)
	}
	c, _ = s.GetChapter(100)
	if c.Memorized || c.MemorizedAt != nil {
		t.Errorf("clearing memorized left memorized=%v memorized_at=%v", c.Memorized, c.MemorizedAt)
	}

	count, err := s.CountMemorized()
	if err != nil {
		t.Fatalf("CountMemorized: %v", err)
	}
	if count != 0 {
		t.Errorf("CountMemorized = %d, want 0", count)
	}
}

func TestQueuedNextSingleWinner(t *testing.T) {
	s := openTestStore(t)
	if err := s.SeedChapters(); err != nil {
		t.Fatalf("SeedChapters: %v", err)
	}

	// Queue several chapters in sequence; only the last queued survives
	for _, n := range []int{80, 95, 110} {
		if err := s.SetQueuedNext(n); err != nil {
			t.Fatalf("SetQueuedNext(%d): %v", n, err)
		}
	}

	var queued int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chapters WHERE queued_next = 1").Scan(&queued)
	if err != nil {
		t.Fatalf("count queued: %v", err)
	}
	if queued != 1 {
		t.Fatalf("%d chapters queued, want exactly 1", queued)
	}

	c, err := s.QueuedNextChapter()
	if err != nil {
		t.Fatalf("QueuedNextChapter: %v", err)
	}
	if c == nil || c.Number != 110 {
		t.Errorf("queued chapter = %v, want 110", c)
	}

	if err := s.ClearQueuedNext(); err != nil {
		t.Fatalf("ClearQueuedNext: %v", err)
	}
	c, err = s.QueuedNextChapter()
	if err != nil {
		t.Fatalf("QueuedNextChapter after clear: %v", err)
	}
	if c != nil {
		t.Errorf("chapter %d still queued after clear", c.Number)
	}
}

func TestFlagOnMissingChapter(t *testing.T) {
	s := openTestStore(t)
	if err := s.SeedChapters(); err != nil {
		t.Fatalf("SeedChapters: %v", err)
	}

	if err := s.SetBookmarked(42, true); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("SetBookmarked(42) = %v, want ErrNotFound", err)
	}
	if err := s.SetQueuedNext(42); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("SetQueuedNext(42) = %v, want ErrNotFound", err)
	}
}

func TestVersesUpsertAndCascade(t *testing.T) {
	s := openTestStore(t)
	if err := s.SeedChapters(); err != nil {
		t.Fatalf("SeedChapters: %v", err)
	}

	for v := 1; v <= 3; v++ {
		err := s.UpsertVerse(&Verse{ChapterNumber: 103, VerseNumber: v, TextArabic: "نص"})
		if err != nil {
			t.Fatalf("UpsertVerse: %v", err)
		}
	}

	// Upsert replaces text in place
	if err := s.UpsertVerse(&Verse{ChapterNumber: 103, VerseNumber: 2, TextArabic: "بدل"}); err != nil {
		t.Fatalf("upsert existing: %v", err)
	}
	v, err := s.GetVerse(103, 2)
	if err != nil {
		t.Fatalf("GetVerse: %v", err)
	}
	if v.TextArabic != "بدل" {
		t.Errorf("verse text = %q after upsert", v.TextArabic)
	}

	count, _ := s.CountVerses(103)
	if count != 3 {
		t.Errorf("CountVerses = %d, want 3", count)
	}

	if err := s.DeleteChapter(103); err != nil {
		t.Fatalf("DeleteChapter: %v", err)
	}
	count, _ = s.CountVerses(103)
	if count != 0 {
		t.Errorf("%d verses survived chapter delete", count)
	}
}

func TestTranslationsPurgeAndUpsert(t *testing.T) {
	s := openTestStore(t)
	if err := s.SeedChapters(); err != nil {
		t.Fatalf("SeedChapters: %v", err)
	}
	for v := 1; v <= 3; v++ {
		if err := s.UpsertVerse(&Verse{ChapterNumber: 103, VerseNumber: v, TextArabic: "نص"}); err != nil {
			t.Fatalf("UpsertVerse: %v", err)
		}
	}

	write := func(catalogID int, text string) {
		t.Helper()
		err := s.Transaction(func(tx *sql.Tx) error {
			for v := 1; v <= 3; v++ {
				row := &Translation{
					ChapterNumber: 103, VerseNumber: v, CatalogID: catalogID,
					LanguageCode: "en", SourceName: "Test", Text: text,
				}
				if err := s.UpsertTranslationTx(tx, row); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("write translation: %v", err)
		}
	}

	write(131, "first pass")
	write(131, "second pass")

	// Upsert keyed by (verse, catalog): re-writing must not duplicate
	count, err := s.CountTranslationRows(131)
	if err != nil {
		t.Fatalf("CountTranslationRows: %v", err)
	}
	if count != 3 {
		t.Fatalf("%d rows after double write, want 3", count)
	}

	rows, err := s.GetChapterTranslation(103, 131)
	if err != nil {
		t.Fatalf("GetChapterTranslation: %v", err)
	}
	if len(rows) != 3 || rows[0].Text != "second pass" {
		t.Errorf("chapter translation = %d rows, first %q", len(rows), rows[0].Text)
	}

	// Purging one edition leaves others alone
	write(85, "other edition")
	if err := s.PurgeTranslation(131); err != nil {
		t.Fatalf("PurgeTranslation: %v", err)
	}
	if n, _ := s.CountTranslationRows(131); n != 0 {
		t.Errorf("%d rows survived purge", n)
	}
	if n, _ := s.CountTranslationRows(85); n != 3 {
		t.Errorf("purge of 131 removed rows of 85: %d left", n)
	}

	editions, err := s.ListDownloadedTranslations()
	if err != nil {
		t.Fatalf("ListDownloadedTranslations: %v", err)
	}
	if len(editions) != 1 || editions[85] != 3 {
		t.Errorf("downloaded editions = %v", editions)
	}
}

func TestSettingsLazyCreateAndUpdate(t *testing.T) {
	s := openTestStore(t)

	// First access creates the singleton with defaults
	settings, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings.ReciterID != 7 || settings.Theme != "system" || !settings.ShowTransliteration {
		t.Errorf("defaults = %+v", settings)
	}

	if err := s.SetReciter(12); err != nil {
		t.Fatalf("SetReciter: %v", err)
	}
	if err := s.SetPrimaryTranslation(131, "en"); err != nil {
		t.Fatalf("SetPrimaryTranslation: %v", err)
	}
	if err := s.SetWifiOnly(true); err != nil {
		t.Fatalf("SetWifiOnly: %v", err)
	}
	if err := s.SaveLastPlayback(109, 42.5); err != nil {
		t.Fatalf("SaveLastPlayback: %v", err)
	}

	settings, err = s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings.ReciterID != 12 {
		t.Errorf("ReciterID = %d", settings.ReciterID)
	}
	if settings.PrimaryTranslationID != 131 || settings.PrimaryLanguage != "en" {
		t.Errorf("primary = %d/%s", settings.PrimaryTranslationID, settings.PrimaryLanguage)
	}
	if !settings.WifiOnly {
		t.Error("WifiOnly not persisted")
	}
	if settings.LastChapter != 109 || settings.LastPositionSecs != 42.5 {
		t.Errorf("last playback = %d@%v", settings.LastChapter, settings.LastPositionSecs)
	}
}

func TestChapterNumbers(t *testing.T) {
	numbers := ChapterNumbers()
	if len(numbers) != ChapterCount {
		t.Fatalf("len = %d, want %d", len(numbers), ChapterCount)
	}
	for i := 1; i < len(numbers); i++ {
		if numbers[i] != numbers[i-1]+1 {
			t.Fatalf("numbers not consecutive at index %d: %v", i, numbers[i-1:i+1])
		}
	}
}
