package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/franz/hifz/internal/audiocache"
	"github.com/franz/hifz/internal/netwatch"
	"github.com/franz/hifz/internal/quran"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
)

// fakeFetcher serves a fixed audio payload; individual chapters can be made
// to fail either transiently (retryable) or permanently.
type fakeFetcher struct {
	transient map[int]int // chapter -> number of failures before success
	failHard  map[int]bool
	calls     map[int]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		transient: make(map[int]int),
		failHard:  make(map[int]bool),
		calls:     make(map[int]int),
	}
}

func (f *fakeFetcher) FetchChapterAudio(ctx context.Context, reciterID, chapter int, withTiming bool) (*quran.ChapterAudio, error) {
	f.calls[chapter]++
	if f.failHard[chapter] {
		return nil, fmt.Errorf("chapter %d: %w", chapter, util.ErrNotFound)
	}
	if f.transient[chapter] > 0 {
		f.transient[chapter]--
		return nil, fmt.Errorf("flaky upstream: %w", util.ErrNetwork)
	}
	return &quran.ChapterAudio{
		AudioURL:      fmt.Sprintf("https://cdn.example/%d.mp3", chapter),
		FileSizeBytes: 10,
	}, nil
}

func (f *fakeFetcher) OpenAudioStream(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("audio-data")), 10, nil
}

func newTestManager(t *testing.T, fetcher Fetcher, network netwatch.Monitor) (*Manager, *audiocache.Cache) {
	t.Helper()
	cache, err := audiocache.New(t.TempDir())
	if err != nil {
		t.Fatalf("audiocache.New: %v", err)
	}
	m := New(&Config{
		Client:      fetcher,
		Cache:       cache,
		Network:     network,
		RetryConfig: &util.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond},
	})
	return m, cache
}

func TestGetDownloadsAndCaches(t *testing.T) {
	fetcher := newFakeFetcher()
	m, cache := newTestManager(t, fetcher, nil)

	var final float64
	if err := m.Get(context.Background(), 103, 7, func(f float64) { final = f }); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !cache.Has(103, 7) {
		t.Error("chapter not cached")
	}
	if final != 1.0 {
		t.Errorf("final progress = %v", final)
	}
	if state, _ := m.ItemState(103, 7); state != StatePresent {
		t.Errorf("state = %s, want present", state)
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.transient[103] = 2 // succeed on the third attempt
	m, cache := newTestManager(t, fetcher, nil)

	if err := m.Get(context.Background(), 103, 7, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetcher.calls[103] != 3 {
		t.Errorf("made %d attempts, want 3", fetcher.calls[103])
	}
	if !cache.Has(103, 7) {
		t.Error("chapter not cached after retries")
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.transient[103] = 10 // more failures than attempts
	m, cache := newTestManager(t, fetcher, nil)

	err := m.Get(context.Background(), 103, 7, nil)
	if !errors.Is(err, util.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if fetcher.calls[103] != 3 {
		t.Errorf("made %d attempts, want 3", fetcher.calls[103])
	}
	if cache.Has(103, 7) {
		t.Error("failed download left a cache entry")
	}
	if state, _ := m.ItemState(103, 7); state != StateAbsent {
		t.Errorf("state = %s, want absent", state)
	}
}

func TestGetDoesNotRetryTerminalErrors(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failHard[103] = true
	m, _ := newTestManager(t, fetcher, nil)

	err := m.Get(context.Background(), 103, 7, nil)
	if !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if fetcher.calls[103] != 1 {
		t.Errorf("made %d attempts for a terminal error, want 1", fetcher.calls[103])
	}
}

func TestGetAllSkipsCached(t *testing.T) {
	fetcher := newFakeFetcher()
	m, cache := newTestManager(t, fetcher, nil)

	// Pre-cache a few chapters; only the rest should be requested
	for _, c := range []int{78, 79, 80} {
		if _, err := cache.Put(c, 7, strings.NewReader("x"), -1, nil); err != nil {
			t.Fatalf("pre-cache: %v", err)
		}
	}

	result, err := m.GetAll(context.Background(), 7, false, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	want := store.ChapterCount - 3
	if result.Requested != want || result.Completed != want {
		t.Errorf("requested %d completed %d, want %d", result.Requested, result.Completed, want)
	}
	for _, c := range []int{78, 79, 80} {
		if fetcher.calls[c] != 0 {
			t.Errorf("cached chapter %d refetched", c)
		}
	}
}

func TestGetAllNothingToDo(t *testing.T) {
	fetcher := newFakeFetcher()
	m, cache := newTestManager(t, fetcher, nil)

	for _, c := range store.ChapterNumbers() {
		if _, err := cache.Put(c, 7, strings.NewReader("x"), -1, nil); err != nil {
			t.Fatalf("pre-cache: %v", err)
		}
	}

	called := false
	result, err := m.GetAll(context.Background(), 7, false, func(done, total int, frac float64) {
		called = true
		if done != 0 || total != 0 || frac != 1.0 {
			t.Errorf("progress = (%d, %d, %v), want (0, 0, 1.0)", done, total, frac)
		}
	})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if result.Requested != 0 || !called {
		t.Errorf("requested = %d, progress called = %v", result.Requested, called)
	}
}

func TestGetAllWifiGate(t *testing.T) {
	fetcher := newFakeFetcher()
	m, _ := newTestManager(t, fetcher, netwatch.Static(false))

	_, err := m.GetAll(context.Background(), 7, true, nil)
	if !errors.Is(err, util.ErrNotOnWifi) {
		t.Fatalf("err = %v, want ErrNotOnWifi", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("%d fetches despite wifi gate", len(fetcher.calls))
	}

	// The same gate with wifi up (or wifiOnly off) proceeds
	if _, err := m.GetAll(context.Background(), 7, false, nil); err != nil {
		t.Errorf("GetAll without gate: %v", err)
	}
}

func TestGetAllContinuesPastFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failHard[80] = true
	fetcher.failHard[100] = true
	m, cache := newTestManager(t, fetcher, nil)

	result, err := m.GetAll(context.Background(), 7, false, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	if len(result.Failed) != 2 || result.Failed[0] != 80 || result.Failed[1] != 100 {
		t.Errorf("Failed = %v, want [80 100]", result.Failed)
	}
	if result.Completed != store.ChapterCount-2 {
		t.Errorf("Completed = %d, want %d", result.Completed, store.ChapterCount-2)
	}
	// Chapters after a failed one still downloaded
	if !cache.Has(81, 7) || !cache.Has(114, 7) {
		t.Error("batch stopped at the failed chapter")
	}
}

func TestCancelBatch(t *testing.T) {
	fetcher := newFakeFetcher()
	m, _ := newTestManager(t, fetcher, nil)

	// Cancel from the progress callback after the first item completes
	result, err := m.GetAll(context.Background(), 7, false, func(done, total int, frac float64) {
		if done == 1 {
			m.CancelBatch()
		}
	})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	if !result.Cancelled {
		t.Error("result not marked cancelled")
	}
	if result.Completed != 1 {
		t.Errorf("Completed = %d, want 1", result.Completed)
	}
}

func TestGetAllCancelledContext(t *testing.T) {
	fetcher := newFakeFetcher()
	m, _ := newTestManager(t, fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := m.GetAll(ctx, 7, false, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if !result.Cancelled || result.Completed != 0 {
		t.Errorf("result = %+v, want cancelled with nothing completed", result)
	}
}
