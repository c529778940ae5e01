// Package download orchestrates single and batch chapter audio downloads
// into the blob cache, with per-item progress, retry with backoff,
// network-condition gating and cooperative cancellation.
package download

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/franz/hifz/internal/audiocache"
	"github.com/franz/hifz/internal/netwatch"
	"github.com/franz/hifz/internal/quran"
	"github.com/franz/hifz/internal/report"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
)

// State describes a chapter's download state
type State string

const (
	StateAbsent      State = "absent"
	StateRetrying    State = "retrying"
	StateDownloading State = "downloading"
	StatePresent     State = "present"
)

// Fetcher is the remote-client surface the manager needs.
// Satisfied by *quran.Client; abstracted for testing.
type Fetcher interface {
	FetchChapterAudio(ctx context.Context, reciterID, chapter int, withTiming bool) (*quran.ChapterAudio, error)
	OpenAudioStream(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// Manager drives audio downloads. Batch processing is sequential and in
// ascending order so aggregate progress stays meaningful and the remote
// service is not flooded.
type Manager struct {
	client  Fetcher
	cache   *audiocache.Cache
	network netwatch.Monitor
	retry   *util.RetryConfig
	logger  *report.EventLogger

	mu       sync.Mutex
	inflight map[int]*item // chapter -> in-flight state

	batchCancel atomic.Bool
}

type item struct {
	state    State
	progress float64
}

// Config holds manager configuration
type Config struct {
	Client      Fetcher
	Cache       *audiocache.Cache
	Network     netwatch.Monitor
	RetryConfig *util.RetryConfig // nil selects util.DefaultRetryConfig
	Logger      *report.EventLogger
}

// New creates a download manager
func New(cfg *Config) *Manager {
	retry := cfg.RetryConfig
	if retry == nil {
		retry = util.DefaultRetryConfig()
	}
	network := cfg.Network
	if network == nil {
		network = netwatch.Static(true)
	}
	return &Manager{
		client:   cfg.Client,
		cache:    cfg.Cache,
		network:  network,
		retry:    retry,
		logger:   cfg.Logger,
		inflight: make(map[int]*item),
	}
}

// ItemState returns a chapter's current download state and progress
func (m *Manager) ItemState(chapter, reciterID int) (State, float64) {
	m.mu.Lock()
	it, ok := m.inflight[chapter]
	m.mu.Unlock()
	if ok {
		return it.state, it.progress
	}
	if m.cache.Has(chapter, reciterID) {
		return StatePresent, 1.0
	}
	return StateAbsent, 0
}

// InFlight returns a snapshot of chapter -> progress for active downloads
func (m *Manager) InFlight() map[int]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[int]float64, len(m.inflight))
	for chapter, it := range m.inflight {
		snapshot[chapter] = it.progress
	}
	return snapshot
}

// Get downloads one chapter recitation into the cache. A download already
// in flight for the chapter makes this a no-op returning ErrAlreadyExists
// (advisory). Up to MaxAttempts attempts are made with linear backoff;
// after exhaustion the item is left absent and a terminal error returned.
func (m *Manager) Get(ctx context.Context, chapter, reciterID int, onProgress func(float64)) error {
	m.mu.Lock()
	if _, busy := m.inflight[chapter]; busy {
		m.mu.Unlock()
		util.DebugLog("Download: chapter %d already in flight", chapter)
		return fmt.Errorf("chapter %d download: %w", chapter, util.ErrAlreadyExists)
	}
	it := &item{state: StateDownloading}
	m.inflight[chapter] = it
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, chapter)
		m.mu.Unlock()
	}()

	started := time.Now()
	attempt := 0
	err := util.RetryLinear(ctx, m.retry, func() error {
		attempt++
		m.setState(it, StateDownloading, 0)
		err := m.fetchOne(ctx, chapter, reciterID, func(frac float64) {
			m.setState(it, StateDownloading, frac)
			if onProgress != nil {
				onProgress(frac)
			}
		})
		if err != nil {
			m.setState(it, StateRetrying, 0)
		}
		return err
	}, fmt.Sprintf("download chapter %d", chapter))

	if err != nil {
		m.logger.Log(report.Event{
			Level:     report.LevelError,
			Event:     report.EventDownload,
			Chapter:   chapter,
			ReciterID: reciterID,
			Error:     err.Error(),
		})
		return err
	}

	m.logger.Log(report.Event{
		Level:     report.LevelInfo,
		Event:     report.EventDownload,
		Chapter:   chapter,
		ReciterID: reciterID,
		Progress:  1.0,
		Duration:  time.Since(started).Milliseconds(),
	})
	util.DebugLog("Download: chapter %d cached (attempt %d)", chapter, attempt)
	return nil
}

// BatchResult reports the outcome of a GetAll run
type BatchResult struct {
	Requested int   // chapters that needed downloading
	Completed int   // chapters cached by this run
	Failed    []int // chapters that exhausted retries
	Cancelled bool  // batch was cancelled before finishing
}

// GetAll downloads every uncached chapter in the target range,
// sequentially in ascending order. With wifiOnly set, the batch aborts
// immediately when not on wifi and re-checks the condition before each
// item. Per-item failures are recorded without stopping the batch;
// cancellation stops after the current item completes.
func (m *Manager) GetAll(ctx context.Context, reciterID int, wifiOnly bool, onProgress func(done, total int, itemFrac float64)) (*BatchResult, error) {
	if wifiOnly && !m.network.OnWifi() {
		return nil, fmt.Errorf("audio batch download: %w", util.ErrNotOnWifi)
	}

	m.batchCancel.Store(false)

	cached, err := m.cache.CachedChapters(reciterID)
	if err != nil {
		return nil, err
	}

	var missing []int
	for _, chapter := range store.ChapterNumbers() {
		if !cached[chapter] {
			missing = append(missing, chapter)
		}
	}

	result := &BatchResult{Requested: len(missing)}
	if len(missing) == 0 {
		util.InfoLog("All chapters already cached for reciter %d", reciterID)
		if onProgress != nil {
			onProgress(0, 0, 1.0)
		}
		return result, nil
	}

	util.InfoLog("Downloading %d chapters for reciter %d", len(missing), reciterID)

	for i, chapter := range missing {
		if m.batchCancel.Load() || ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		// Mid-batch network changes pause the batch here
		if wifiOnly && !m.network.OnWifi() {
			return result, fmt.Errorf("audio batch download interrupted: %w", util.ErrNotOnWifi)
		}

		err := m.Get(ctx, chapter, reciterID, func(frac float64) {
			if onProgress != nil {
				onProgress(i, len(missing), frac)
			}
		})
		if err != nil {
			util.WarnLog("Chapter %d failed: %v", chapter, err)
			result.Failed = append(result.Failed, chapter)
		} else {
			result.Completed++
		}
		if onProgress != nil {
			onProgress(i+1, len(missing), 1.0)
		}
	}

	if n := len(result.Failed); n > 0 {
		util.WarnLog("Batch finished with %d failed chapters: %v", n, result.Failed)
	} else if !result.Cancelled {
		util.SuccessLog("Batch finished: %d chapters cached", result.Completed)
	}

	return result, nil
}

// CancelBatch signals the in-flight batch loop to stop after the current
// item and clears per-item progress entries.
func (m *Manager) CancelBatch() {
	m.batchCancel.Store(true)
	m.mu.Lock()
	m.inflight = make(map[int]*item)
	m.mu.Unlock()
}

// fetchOne resolves the audio descriptor and streams the media into the
// cache under (chapter, reciterID).
func (m *Manager) fetchOne(ctx context.Context, chapter, reciterID int, onProgress func(float64)) error {
	audio, err := m.client.FetchChapterAudio(ctx, reciterID, chapter, false)
	if err != nil {
		return err
	}

	body, size, err := m.client.OpenAudioStream(ctx, audio.AudioURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if size <= 0 {
		size = audio.FileSizeBytes
	}

	_, err = m.cache.Put(chapter, reciterID, body, size, onProgress)
	return err
}

func (m *Manager) setState(it *item, state State, progress float64) {
	m.mu.Lock()
	it.state = state
	it.progress = progress
	m.mu.Unlock()
}
