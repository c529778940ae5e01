// Package netwatch tracks whether the machine is on the preferred network
// type (wifi) for large downloads. The flag is refreshed by a background
// loop and read lock-free, so consumers can poll it between work items
// without coordination.
package netwatch

import (
	"sync/atomic"
	"time"

	"github.com/franz/hifz/internal/util"
)

// Monitor reports whether the current network is the preferred type
type Monitor interface {
	OnWifi() bool
}

// Static is a fixed-answer Monitor, used in tests and to bypass detection
type Static bool

// OnWifi implements Monitor
func (s Static) OnWifi() bool { return bool(s) }

// DefaultInterval is how often the watcher re-probes the network
const DefaultInterval = 5 * time.Second

// Watcher probes the active network interface periodically and caches the
// result in an atomic flag.
type Watcher struct {
	onWifi   atomic.Bool
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewWatcher creates a watcher probing at the given interval (zero selects
// DefaultInterval). The initial probe runs synchronously so the flag is
// valid before Start.
func NewWatcher(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	w := &Watcher{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	w.onWifi.Store(probeWifi())
	return w
}

// OnWifi implements Monitor
func (w *Watcher) OnWifi() bool {
	return w.onWifi.Load()
}

// Start launches the background refresh loop
func (w *Watcher) Start() {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				was := w.onWifi.Load()
				now := probeWifi()
				if was != now {
					util.InfoLog("Network changed: wifi=%v", now)
				}
				w.onWifi.Store(now)
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop terminates the refresh loop
func (w *Watcher) Stop() {
	close(w.stop)
	<-w.done
}
