// Package report writes a JSONL audit log of long-running operations
// (imports, translation syncs, audio downloads) so interrupted runs can be
// inspected after the fact.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventImport   EventType = "import"
	EventSync     EventType = "sync"
	EventDownload EventType = "download"
	EventPlayback EventType = "playback"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single operation event
type Event struct {
	Timestamp time.Time  `json:"ts"`
	Level     EventLevel `json:"level"`
	Event     EventType  `json:"event"`
	Chapter   int        `json:"chapter,omitempty"`
	CatalogID int        `json:"catalog_id,omitempty"`
	ReciterID int        `json:"reciter_id,omitempty"`
	Progress  float64    `json:"progress,omitempty"`
	Duration  int64      `json:"duration_ms,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger writing to outputDir.
// minLevel determines which events are written.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("events-%s.jsonl", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Path returns the log file path
func (l *EventLogger) Path() string {
	return l.path
}

// Log writes an event if it meets the minimum level. A nil logger drops
// the event, so call sites don't need to guard.
func (l *EventLogger) Log(e Event) {
	if l == nil {
		return
	}
	if levelPriority[e.Level] < levelPriority[l.minLevel] {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.encoder.Encode(e)
}

// Close closes the underlying file
func (l *EventLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
