// Package player drives a single active audio playback session: a state
// machine that keeps the current verse synchronized with server-provided
// timing metadata while tolerating network interruption.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/franz/hifz/internal/audiocache"
	"github.com/franz/hifz/internal/quran"
	"github.com/franz/hifz/internal/store"
	"github.com/franz/hifz/internal/util"
	"github.com/sourcegraph/conc"
)

// State is the playback engine state
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
	StateError   State = "error"
)

// Mode is the playback scope: a whole chapter, or one verse of the
// chapter recitation played as a loopable excerpt.
type Mode struct {
	SingleVerse bool
	Verse       int
}

// Snapshot is the engine state published to subscribers after each
// transition.
type Snapshot struct {
	State     State
	Chapter   int
	ReciterID int
	Verse     int // current verse within the chapter
	Position  float64
	Duration  float64
	Rate      float64
	Repeat    bool
	Mode      Mode
	Err       string
}

// Progress returns position/duration in [0,1], 0 when duration is unknown
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := s.Position / s.Duration
	if p > 1 {
		return 1
	}
	return p
}

// Client is the remote-client surface the engine needs.
// Satisfied by *quran.Client; abstracted for testing.
type Client interface {
	FetchChapterAudio(ctx context.Context, reciterID, chapter int, withTiming bool) (*quran.ChapterAudio, error)
	OpenAudioStream(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// defaultTickInterval drives position updates
const defaultTickInterval = 200 * time.Millisecond

// Engine is the playback state machine. All state mutations happen under
// one mutex; long-running work (fetching, opening media, cache fills) runs
// on background goroutines that re-acquire the lock only to apply results,
// and a generation counter discards results of superseded loads.
type Engine struct {
	client    Client
	cache     *audiocache.Cache
	store     *store.Store
	opener    MediaOpener
	transport Transport
	onChange  func(Snapshot)
	tickEvery time.Duration

	mu         sync.Mutex
	state      State
	chapter    int
	reciterID  int
	verse      int
	mode       Mode
	repeat     bool
	rate       float64
	position   float64
	duration   float64
	errMsg     string
	media      Media
	timings    TimingTable
	title      string
	generation int
	loadCancel context.CancelFunc

	bg       conc.WaitGroup
	stopTick chan struct{}
	tickDone chan struct{}
	closed   bool
}

// Config holds engine configuration
type Config struct {
	Client       Client
	Cache        *audiocache.Cache
	Store        *store.Store // optional; enables titles and session restore
	Opener       MediaOpener
	Transport    Transport      // optional
	OnChange     func(Snapshot) // optional state-change subscriber
	ReciterID    int
	TickInterval time.Duration // 0 selects the default
}

// New creates a playback engine and starts its position tick loop
func New(cfg *Config) *Engine {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}
	e := &Engine{
		client:    cfg.Client,
		cache:     cfg.Cache,
		store:     cfg.Store,
		opener:    cfg.Opener,
		transport: cfg.Transport,
		onChange:  cfg.OnChange,
		tickEvery: tick,
		state:     StateIdle,
		reciterID: cfg.ReciterID,
		rate:      1.0,
		stopTick:  make(chan struct{}),
		tickDone:  make(chan struct{}),
	}
	go e.tickLoop()
	return e
}

// Play starts playback of a full chapter, superseding any session or
// in-flight load.
func (e *Engine) Play(chapter int) {
	e.startSession(chapter, Mode{})
}

// PlayVerse starts verse-scoped playback: the chapter recitation is used,
// scoped to the verse's timing interval.
func (e *Engine) PlayVerse(chapter, verse int) {
	e.startSession(chapter, Mode{SingleVerse: true, Verse: verse})
}

func (e *Engine) startSession(chapter int, mode Mode) {
	e.mu.Lock()
	// Cancel any prior in-flight load so two sessions can't race
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	e.closeMediaLocked()

	e.generation++
	gen := e.generation
	loadCtx, cancel := context.WithCancel(context.Background())
	e.loadCancel = cancel

	e.state = StateLoading
	e.chapter = chapter
	e.mode = mode
	e.verse = 0
	if mode.SingleVerse {
		e.verse = mode.Verse
	}
	e.position = 0
	e.duration = 0
	e.errMsg = ""
	e.timings = nil
	e.title = e.chapterTitle(chapter)
	reciter := e.reciterID
	e.mu.Unlock()

	e.emit()

	e.bg.Go(func() {
		e.load(loadCtx, gen, chapter, reciter, mode)
	})
}

// load fetches the audio descriptor, resolves a playable source and
// brings the session to the playing state. Runs off the owning context;
// results are applied only if the generation still matches.
func (e *Engine) load(ctx context.Context, gen, chapter, reciter int, mode Mode) {
	audio, err := e.client.FetchChapterAudio(ctx, reciter, chapter, true)
	if err != nil {
		e.failLoad(gen, err)
		return
	}

	// Prefer the cached file; fall back to streaming the remote URL while
	// a background fill caches it for next time
	source := audio.AudioURL
	if e.cache != nil {
		if e.cache.Has(chapter, reciter) {
			source = e.cache.Path(chapter, reciter)
		} else {
			e.bg.Go(func() {
				e.cacheFill(chapter, reciter, audio)
			})
		}
	}

	media, err := e.opener.Open(ctx, source)
	if err != nil {
		e.failLoad(gen, err)
		return
	}

	e.mu.Lock()
	if gen != e.generation || e.closed {
		e.mu.Unlock()
		media.Close()
		return
	}

	e.media = media
	e.timings = NewTimingTable(audio.Timings)
	if dur, err := media.Duration(); err == nil {
		e.duration = dur
	}

	if mode.SingleVerse {
		if start, _, ok := e.timings.Bounds(mode.Verse); ok {
			if err := media.Seek(start); err == nil {
				e.position = start
			}
		}
	}

	_ = media.SetRate(e.rate)

	if err := media.Play(); err != nil {
		e.media = nil
		e.state = StateError
		e.errMsg = fmt.Sprintf("playback failed: %v", err)
		e.mu.Unlock()
		media.Close()
		e.emit()
		return
	}

	e.state = StatePlaying
	e.syncVerseLocked()
	e.mu.Unlock()

	e.emit()
	e.publish()
}

func (e *Engine) failLoad(gen int, err error) {
	e.mu.Lock()
	if gen != e.generation || e.closed {
		// Superseded by a newer session; its load owns the state now
		e.mu.Unlock()
		return
	}
	e.state = StateError
	e.errMsg = loadErrorMessage(err)
	e.mu.Unlock()
	e.emit()
}

// cacheFill downloads the chapter audio into the cache in the background.
// Failures only cost the next session its cache hit.
func (e *Engine) cacheFill(chapter, reciter int, audio *quran.ChapterAudio) {
	body, size, err := e.client.OpenAudioStream(context.Background(), audio.AudioURL)
	if err != nil {
		util.DebugLog("Background cache fill failed for chapter %d: %v", chapter, err)
		return
	}
	defer body.Close()
	if size <= 0 {
		size = audio.FileSizeBytes
	}
	if _, err := e.cache.Put(chapter, reciter, body, size, nil); err != nil {
		util.DebugLog("Background cache fill failed for chapter %d: %v", chapter, err)
	}
}

// Pause suspends playback, keeping the loaded source
func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.state != StatePlaying || e.media == nil {
		e.mu.Unlock()
		return fmt.Errorf("pause: no active playback")
	}
	if err := e.media.Pause(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = StatePaused
	chapter, pos := e.chapter, e.position
	e.mu.Unlock()

	e.saveSession(chapter, pos)
	e.emit()
	e.publish()
	return nil
}

// Resume continues paused playback without re-fetching; the stored rate
// is applied on resume.
func (e *Engine) Resume() error {
	e.mu.Lock()
	if e.state != StatePaused || e.media == nil {
		e.mu.Unlock()
		return fmt.Errorf("resume: no paused playback")
	}
	_ = e.media.SetRate(e.rate)
	if err := e.media.Play(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = StatePlaying
	e.mu.Unlock()

	e.emit()
	e.publish()
	return nil
}

// Toggle flips between playing and paused
func (e *Engine) Toggle() error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case StatePlaying:
		return e.Pause()
	case StatePaused:
		return e.Resume()
	}
	return fmt.Errorf("toggle: no active playback")
}

// Stop ends the session, resets the position to zero and clears the
// external now-playing display.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	chapter, pos := e.chapter, e.position
	hadSession := e.state == StatePlaying || e.state == StatePaused || e.state == StateLoading
	e.closeMediaLocked()
	e.state = StateStopped
	e.position = 0
	e.timings = nil
	e.mu.Unlock()

	if hadSession {
		e.saveSession(chapter, pos)
	}
	if e.transport != nil {
		e.transport.Clear()
	}
	e.emit()
}

// Seek moves to an absolute position, clamped to [0, duration]. The
// playback state is unchanged.
func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	if e.media == nil {
		e.mu.Unlock()
		return fmt.Errorf("seek: no active playback")
	}
	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	if err := e.media.Seek(seconds); err != nil {
		e.mu.Unlock()
		return err
	}
	e.position = seconds
	e.syncVerseLocked()
	e.mu.Unlock()

	e.emit()
	e.publish()
	return nil
}

// SeekBy moves relative to the current position
func (e *Engine) SeekBy(delta float64) error {
	e.mu.Lock()
	target := e.position + delta
	e.mu.Unlock()
	return e.Seek(target)
}

// SetRate updates the playback rate, immediately when playing, otherwise
// stored for the next resume.
func (e *Engine) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("%w: rate %v", util.ErrInvalidRef, rate)
	}
	e.mu.Lock()
	e.rate = rate
	apply := e.state == StatePlaying && e.media != nil
	media := e.media
	e.mu.Unlock()

	if apply {
		if err := media.SetRate(rate); err != nil {
			return err
		}
		e.publish()
	}
	return nil
}

// SetRepeat toggles repeat for both chapter and single-verse playback
func (e *Engine) SetRepeat(repeat bool) {
	e.mu.Lock()
	e.repeat = repeat
	e.mu.Unlock()
}

// SetVoice switches the reciter. With a session active (playing or
// paused), the same chapter restarts from the beginning under the new
// voice, like a fresh play; the position is not preserved.
func (e *Engine) SetVoice(reciterID int) {
	e.mu.Lock()
	e.reciterID = reciterID
	restart := e.state == StatePlaying || e.state == StatePaused
	chapter := e.chapter
	mode := e.mode
	e.mu.Unlock()

	if restart {
		e.startSession(chapter, mode)
	}
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Close stops the engine, its tick loop and all background work
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	e.closeMediaLocked()
	e.mu.Unlock()

	close(e.stopTick)
	<-e.tickDone
	e.bg.Wait()
}

// tickLoop drives position updates while playing
func (e *Engine) tickLoop() {
	defer close(e.tickDone)
	ticker := time.NewTicker(e.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.tick()
		case <-e.stopTick:
			return
		}
	}
}

// tick advances position-derived state: current verse, single-verse end
// boundary and natural end-of-media.
func (e *Engine) tick() {
	e.mu.Lock()
	if e.state != StatePlaying || e.media == nil {
		e.mu.Unlock()
		return
	}

	pos, err := e.media.Position()
	if err == nil {
		e.position = pos
	}
	prevVerse := e.verse
	e.syncVerseLocked()
	verseChanged := e.verse != prevVerse

	// Verse-scoped playback stops (or loops) at the verse end boundary,
	// independent of natural end-of-file
	if e.mode.SingleVerse {
		if start, end, ok := e.timings.Bounds(e.mode.Verse); ok && e.position >= end {
			if e.repeat {
				if err := e.media.Seek(start); err == nil {
					e.position = start
					e.syncVerseLocked()
				}
				e.mu.Unlock()
				e.emit()
				e.publish()
				return
			}
			e.stopFromTickLocked()
			return
		}
	}

	// Natural end of media in full-chapter mode
	atEnd, _ := e.media.AtEnd()
	if atEnd || (e.duration > 0 && e.position >= e.duration) {
		if e.repeat {
			if err := e.media.Seek(0); err == nil {
				e.position = 0
				_ = e.media.Play()
			}
			e.syncVerseLocked()
			e.mu.Unlock()
			e.emit()
			e.publish()
			return
		}
		e.stopFromTickLocked()
		return
	}

	e.mu.Unlock()

	if verseChanged {
		e.emit()
	}
	e.publish()
}

// stopFromTickLocked ends the session from inside the tick loop.
// The mutex is held on entry and released here.
func (e *Engine) stopFromTickLocked() {
	chapter, pos := e.chapter, e.position
	e.closeMediaLocked()
	e.state = StateStopped
	e.position = 0
	e.timings = nil
	e.mu.Unlock()

	e.saveSession(chapter, pos)
	if e.transport != nil {
		e.transport.Clear()
	}
	e.emit()
}

func (e *Engine) closeMediaLocked() {
	if e.media != nil {
		_ = e.media.Pause()
		_ = e.media.Close()
		e.media = nil
	}
}

// syncVerseLocked recomputes the current verse from the timing table
func (e *Engine) syncVerseLocked() {
	if verse, ok := e.timings.VerseAt(e.position); ok {
		e.verse = verse
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		State:     e.state,
		Chapter:   e.chapter,
		ReciterID: e.reciterID,
		Verse:     e.verse,
		Position:  e.position,
		Duration:  e.duration,
		Rate:      e.rate,
		Repeat:    e.repeat,
		Mode:      e.mode,
		Err:       e.errMsg,
	}
}

// emit notifies the subscriber of a state transition
func (e *Engine) emit() {
	if e.onChange == nil {
		return
	}
	e.onChange(e.Snapshot())
}

// publish pushes now-playing metadata to the transport surface
func (e *Engine) publish() {
	if e.transport == nil {
		return
	}
	s := e.Snapshot()
	e.transport.Publish(NowPlaying{
		Title:    e.titleFor(s),
		Artist:   fmt.Sprintf("Reciter %d", s.ReciterID),
		Elapsed:  s.Position,
		Duration: s.Duration,
		Rate:     s.Rate,
		Playing:  s.State == StatePlaying,
	})
}

func (e *Engine) titleFor(s Snapshot) string {
	e.mu.Lock()
	title := e.title
	e.mu.Unlock()
	if title == "" {
		title = fmt.Sprintf("Chapter %d", s.Chapter)
	}
	return title
}

// chapterTitle resolves the display name for the transport surface
func (e *Engine) chapterTitle(chapter int) string {
	if e.store == nil {
		return ""
	}
	c, err := e.store.GetChapter(chapter)
	if err != nil || c == nil {
		return ""
	}
	return c.NameTransliteration
}

// saveSession persists the last playback position for session restore
func (e *Engine) saveSession(chapter int, position float64) {
	if e.store == nil || chapter == 0 {
		return
	}
	if err := e.store.SaveLastPlayback(chapter, position); err != nil {
		util.WarnLog("Failed to save playback position: %v", err)
	}
}

func loadErrorMessage(err error) string {
	switch {
	case errors.Is(err, util.ErrNetwork):
		return fmt.Sprintf("network error while loading audio: %v", err)
	case errors.Is(err, util.ErrDecode):
		return fmt.Sprintf("unexpected audio metadata: %v", err)
	case errors.Is(err, util.ErrNotFound):
		return fmt.Sprintf("recitation not available: %v", err)
	default:
		return fmt.Sprintf("failed to load audio: %v", err)
	}
}
