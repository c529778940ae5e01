package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/hifz/internal/quran"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
)

type fakeVerseFetcher struct {
	failOn int
	calls  int
}

func (f *fakeVerseFetcher) FetchChapterVerses(ctx context.Context, chapter int) ([]quran.VerseText, error) {
	f.calls++
	if f.failOn != 0 && chapter == f.failOn {
		return nil, fmt.Errorf("unreachable: %w", util.ErrNetwork)
	}
	return []quran.VerseText{
		{VerseNumber: 1, TextArabic: "الأولى", Transliteration: "al-ula"},
		{VerseNumber: 2, TextArabic: "الثانية", Transliteration: "ath-thaniya"},
	}, nil
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunImportsEverything(t *testing.T) {
	st := testStore(t)
	fetcher := &fakeVerseFetcher{}
	im := New(&Config{Store: st, Client: fetcher, RequestDelay: time.Millisecond})

	var lastProgress float64
	if err := im.Run(context.Background(), func(f float64) { lastProgress = f }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if lastProgress != 1.0 {
		t.Errorf("final progress = %v", lastProgress)
	}
	if fetcher.calls != store.ChapterCount {
		t.Errorf("fetched %d chapters, want %d", fetcher.calls, store.ChapterCount)
	}

	chapters, err := st.ListChapters()
	if err != nil {
		t.Fatalf("ListChapters: %v", err)
	}
	if len(chapters) != store.ChapterCount {
		t.Fatalf("%d chapters seeded", len(chapters))
	}

	v, err := st.GetVerse(103, 1)
	if err != nil {
		t.Fatalf("GetVerse: %v", err)
	}
	if v == nil || v.Transliteration != "al-ula" {
		t.Errorf("verse 103:1 = %+v", v)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	st := testStore(t)
	im := New(&Config{Store: st, Client: &fakeVerseFetcher{}, RequestDelay: time.Millisecond})

	for run := 0; run < 2; run++ {
		if err := im.Run(context.Background(), nil); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}

	count, _ := st.CountVerses(103)
	if count != 2 {
		t.Errorf("%d verses after double import, want 2", count)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	st := testStore(t)
	fetcher := &fakeVerseFetcher{failOn: 90}
	im := New(&Config{Store: st, Client: fetcher, RequestDelay: time.Millisecond})

	err := im.Run(context.Background(), nil)
	if !errors.Is(err, util.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}

	// Chapters before the failure are kept; the failed one has no verses
	if count, _ := st.CountVerses(89); count != 2 {
		t.Errorf("chapter 89 has %d verses", count)
	}
	if count, _ := st.CountVerses(90); count != 0 {
		t.Errorf("failed chapter has %d verses", count)
	}
}
