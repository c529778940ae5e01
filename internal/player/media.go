package player

import "context"

// Media is an open playback surface for a single audio source. The engine
// is the only caller; implementations need not be safe for concurrent use.
type Media interface {
	// Play starts or resumes playback
	Play() error
	// Pause suspends playback, keeping the position
	Pause() error
	// Seek moves to an absolute position in seconds
	Seek(seconds float64) error
	// SetRate sets the playback rate (1.0 is normal speed)
	SetRate(rate float64) error
	// Position returns the current position in seconds
	Position() (float64, error)
	// Duration returns the total duration in seconds, or 0 if unknown
	Duration() (float64, error)
	// AtEnd reports whether the source has played to its natural end
	AtEnd() (bool, error)
	// Close releases the source
	Close() error
}

// MediaOpener resolves a source (local file path or remote URL) into an
// open Media.
type MediaOpener interface {
	Open(ctx context.Context, source string) (Media, error)
}
