package player

// NowPlaying is the metadata published to an external transport-control
// surface (lock screen, media keys, remote) on every meaningful change.
type NowPlaying struct {
	Title    string  // chapter display name
	Artist   string  // reciter name
	Elapsed  float64 // seconds
	Duration float64 // seconds
	Rate     float64
	Playing  bool
}

// Transport is the external transport-control surface. Publish pushes
// now-playing metadata; Clear removes it when playback stops.
type Transport interface {
	Publish(NowPlaying)
	Clear()
}

// Command is an external transport command. The engine responds by
// invoking the same public operations a direct caller would use.
// Absolute seek carries a target time, which the plain enum cannot, and
// so arrives through HandleSeek instead.
type Command int

const (
	CmdPlay Command = iota
	CmdPause
	CmdToggle
	CmdSkipForward  // +10s
	CmdSkipBackward // -10s
)

// skipStep is the seek distance of skip commands, in seconds
const skipStep = 10.0

// HandleCommand dispatches an external transport command
func (e *Engine) HandleCommand(cmd Command) error {
	switch cmd {
	case CmdPlay:
		return e.Resume()
	case CmdPause:
		return e.Pause()
	case CmdToggle:
		return e.Toggle()
	case CmdSkipForward:
		return e.SeekBy(skipStep)
	case CmdSkipBackward:
		return e.SeekBy(-skipStep)
	}
	return nil
}

// HandleSeek dispatches an external absolute-seek transport command,
// clamped like any caller-initiated seek.
func (e *Engine) HandleSeek(target float64) error {
	return e.Seek(target)
}
