package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel mirrors the event-log severities so the console and the JSONL
// event log rank messages the same way.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// levelStyle pairs the console tag with its ANSI color.
type levelStyle struct {
	tag   string
	color string
}

var levelStyles = map[LogLevel]levelStyle{
	LevelDebug:   {"debug", "\033[90m"},
	LevelInfo:    {"info ", "\033[36m"},
	LevelWarning: {"warn ", "\033[33m"},
	LevelError:   {"error", "\033[31m"},
}

var (
	logMu    sync.Mutex
	minLevel = LevelInfo
	noColor  = os.Getenv("NO_COLOR") != ""
	logOut   io.Writer = os.Stderr
)

// SetVerbose lowers the threshold to debug
func SetVerbose(verbose bool) {
	logMu.Lock()
	defer logMu.Unlock()
	if verbose {
		minLevel = LevelDebug
	}
}

// SetQuiet raises the threshold to errors only. Quiet wins over verbose
// when both flags are set.
func SetQuiet(quiet bool) {
	logMu.Lock()
	defer logMu.Unlock()
	if quiet {
		minLevel = LevelError
	}
}

func logf(level LogLevel, format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	if level < minLevel {
		return
	}
	style := levelStyles[level]
	tag := style.tag
	if !noColor {
		tag = style.color + tag + "\033[0m"
	}
	fmt.Fprintf(logOut, "%s %s %s\n",
		time.Now().Format("15:04:05"), tag, fmt.Sprintf(format, args...))
}

func DebugLog(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

func InfoLog(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

func WarnLog(format string, args ...interface{}) {
	logf(LevelWarning, format, args...)
}

func ErrorLog(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

// SuccessLog marks an operation that completed; filtered like info
func SuccessLog(format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	if LevelInfo < minLevel {
		return
	}
	tag := "done "
	if !noColor {
		tag = "\033[32m" + tag + "\033[0m"
	}
	fmt.Fprintf(logOut, "%s %s %s\n",
		time.Now().Format("15:04:05"), tag, fmt.Sprintf(format, args...))
}
