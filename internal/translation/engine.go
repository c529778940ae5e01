// Package translation orchestrates full-catalog download of a translation
// edition into the local content store.
package translation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/hifz/internal/report"
	"github.com/franz/hifz/internal/sanitize"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
)

// DefaultRequestDelay is the politeness throttle between chapter fetches
const DefaultRequestDelay = 300 * time.Millisecond

// Fetcher retrieves one chapter's verse texts for a translation edition.
// Satisfied by *quran.Client; abstracted for testing.
type Fetcher interface {
	FetchChapterTranslation(ctx context.Context, catalogID, chapter int) ([]string, error)
}

// Engine downloads translation editions chapter by chapter, sequentially
// and in ascending order, merging rows into the store idempotently.
type Engine struct {
	store  *store.Store
	client Fetcher
	delay  time.Duration
	logger *report.EventLogger
}

// Config holds engine configuration
type Config struct {
	Store        *store.Store
	Client       Fetcher
	RequestDelay time.Duration // 0 selects DefaultRequestDelay
	Logger       *report.EventLogger
}

// New creates a sync engine
func New(cfg *Config) *Engine {
	delay := cfg.RequestDelay
	if delay <= 0 {
		delay = DefaultRequestDelay
	}
	return &Engine{
		store:  cfg.Store,
		client: cfg.Client,
		delay:  delay,
		logger: cfg.Logger,
	}
}

// Download fetches a translation edition for every chapter in the target
// range and merges it into the store. Existing rows for the edition are
// purged first (all-or-nothing, before any network activity). A failure on
// any chapter aborts the operation; rows committed for earlier chapters
// remain and a re-run converges to the same final state.
func (e *Engine) Download(ctx context.Context, catalogID int, language, displayName string, onProgress func(float64)) error {
	if catalogID <= 0 {
		return fmt.Errorf("%w: catalog id %d", util.ErrInvalidRef, catalogID)
	}

	util.InfoLog("Downloading translation %d (%s, %s)", catalogID, displayName, language)
	started := time.Now()

	if err := e.store.PurgeTranslation(catalogID); err != nil {
		return err
	}

	chapters := store.ChapterNumbers()
	for i, chapter := range chapters {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.syncChapter(ctx, catalogID, language, displayName, chapter); err != nil {
			e.logger.Log(report.Event{
				Level:     report.LevelError,
				Event:     report.EventError,
				Chapter:   chapter,
				CatalogID: catalogID,
				Error:     err.Error(),
			})
			return fmt.Errorf("chapter %d: %w", chapter, err)
		}

		completed := i + 1
		progress := float64(completed) / float64(len(chapters))
		if onProgress != nil {
			onProgress(progress)
		}
		e.logger.Log(report.Event{
			Level:     report.LevelDebug,
			Event:     report.EventSync,
			Chapter:   chapter,
			CatalogID: catalogID,
			Progress:  progress,
		})

		// Politeness throttle between chapter requests
		if completed < len(chapters) {
			select {
			case <-time.After(e.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	e.logger.Log(report.Event{
		Level:     report.LevelInfo,
		Event:     report.EventSync,
		CatalogID: catalogID,
		Progress:  1.0,
		Duration:  time.Since(started).Milliseconds(),
		Message:   displayName,
	})
	util.SuccessLog("Translation %d downloaded in %s", catalogID, time.Since(started).Round(time.Second))

	return nil
}

// syncChapter fetches, sanitizes and upserts one chapter's rows in a
// single transaction.
func (e *Engine) syncChapter(ctx context.Context, catalogID int, language, displayName string, chapter int) error {
	texts, err := e.client.FetchChapterTranslation(ctx, catalogID, chapter)
	if err != nil {
		return err
	}

	verses, err := e.store.GetVerses(chapter)
	if err != nil {
		return err
	}
	if len(verses) == 0 {
		return fmt.Errorf("chapter %d has no verses, run import first: %w", chapter, util.ErrNotFound)
	}

	// Alignment is positional: the response carries no verse numbers and is
	// assumed to follow ascending verse order. Extra entries are dropped;
	// on shortfall trailing verses get no translation this pass.
	if len(texts) > len(verses) {
		util.WarnLog("Chapter %d: response has %d entries for %d verses, dropping extras",
			chapter, len(texts), len(verses))
		texts = texts[:len(verses)]
	} else if len(texts) < len(verses) {
		util.WarnLog("Chapter %d: response has %d entries for %d verses, trailing verses left untranslated",
			chapter, len(texts), len(verses))
	}

	return e.store.Transaction(func(tx *sql.Tx) error {
		for i, text := range texts {
			row := &store.Translation{
				ChapterNumber: chapter,
				VerseNumber:   verses[i].VerseNumber,
				CatalogID:     catalogID,
				LanguageCode:  language,
				SourceName:    displayName,
				Text:          sanitize.Clean(text),
			}
			if err := e.store.UpsertTranslationTx(tx, row); err != nil {
				return err
			}
		}
		return nil
	})
}
