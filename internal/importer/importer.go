// Package importer performs the initial bulk import: bundled chapter
// metadata plus verse text fetched from the content API.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/hifz/internal/quran"
	"github.com/franz/hifz/internal/report"
	"github.com/franz/hifz/internal/sanitize"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
)

// DefaultRequestDelay is the politeness throttle between chapter fetches
const DefaultRequestDelay = 300 * time.Millisecond

// VerseFetcher retrieves a chapter's source text.
// Satisfied by *quran.Client; abstracted for testing.
type VerseFetcher interface {
	FetchChapterVerses(ctx context.Context, chapter int) ([]quran.VerseText, error)
}

// Importer seeds chapter metadata and fills in verse text
type Importer struct {
	store  *store.Store
	client VerseFetcher
	delay  time.Duration
	logger *report.EventLogger
}

// Config holds importer configuration
type Config struct {
	Store        *store.Store
	Client       VerseFetcher
	RequestDelay time.Duration
	Logger       *report.EventLogger
}

// New creates an importer
func New(cfg *Config) *Importer {
	delay := cfg.RequestDelay
	if delay <= 0 {
		delay = DefaultRequestDelay
	}
	return &Importer{
		store:  cfg.Store,
		client: cfg.Client,
		delay:  delay,
		logger: cfg.Logger,
	}
}

// Run seeds all chapters and imports their verse text sequentially in
// ascending order. Re-running upserts in place, so an interrupted import
// can simply be repeated.
func (im *Importer) Run(ctx context.Context, onProgress func(float64)) error {
	util.InfoLog("Importing chapters %d-%d", store.FirstChapter, store.LastChapter)
	started := time.Now()

	if err := im.store.SeedChapters(); err != nil {
		return err
	}

	chapters := store.ChapterNumbers()
	for i, chapter := range chapters {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := im.importChapter(ctx, chapter); err != nil {
			im.logger.Log(report.Event{
				Level:   report.LevelError,
				Event:   report.EventError,
				Chapter: chapter,
				Error:   err.Error(),
			})
			return fmt.Errorf("chapter %d: %w", chapter, err)
		}

		completed := i + 1
		if onProgress != nil {
			onProgress(float64(completed) / float64(len(chapters)))
		}
		im.logger.Log(report.Event{
			Level:    report.LevelDebug,
			Event:    report.EventImport,
			Chapter:  chapter,
			Progress: float64(completed) / float64(len(chapters)),
		})

		if completed < len(chapters) {
			select {
			case <-time.After(im.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	util.SuccessLog("Import finished in %s", time.Since(started).Round(time.Second))
	return nil
}

func (im *Importer) importChapter(ctx context.Context, chapter int) error {
	verses, err := im.client.FetchChapterVerses(ctx, chapter)
	if err != nil {
		return err
	}
	if len(verses) == 0 {
		return fmt.Errorf("no verses returned: %w", util.ErrDecode)
	}

	for i, v := range verses {
		number := v.VerseNumber
		if number == 0 {
			number = i + 1
		}
		row := &store.Verse{
			ChapterNumber:   chapter,
			VerseNumber:     number,
			TextArabic:      sanitize.NormalizeArabic(v.TextArabic),
			Transliteration: sanitize.Clean(v.Transliteration),
		}
		if err := im.store.UpsertVerse(row); err != nil {
			return err
		}
	}

	return nil
}
