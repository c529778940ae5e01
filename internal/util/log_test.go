package util

import (
	"bytes"
	"strings"
	"testing"
)

// captureLog redirects console output into a buffer and pins a known
// threshold, restoring the globals on cleanup.
func captureLog(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	logMu.Lock()
	prevOut, prevLevel, prevColor := logOut, minLevel, noColor
	buf := &bytes.Buffer{}
	logOut, minLevel, noColor = buf, level, true
	logMu.Unlock()
	t.Cleanup(func() {
		logMu.Lock()
		logOut, minLevel, noColor = prevOut, prevLevel, prevColor
		logMu.Unlock()
	})
	return buf
}

func TestLogThreshold(t *testing.T) {
	buf := captureLog(t, LevelInfo)

	DebugLog("hidden %d", 1)
	InfoLog("shown %d", 2)
	WarnLog("also shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info threshold:\n%s", out)
	}
	if !strings.Contains(out, "info  shown 2") {
		t.Errorf("info line missing or mis-tagged:\n%s", out)
	}
	if !strings.Contains(out, "warn  also shown") {
		t.Errorf("warn line missing or mis-tagged:\n%s", out)
	}
}

func TestQuietKeepsErrorsOnly(t *testing.T) {
	buf := captureLog(t, LevelInfo)
	SetQuiet(true)

	InfoLog("chatter")
	SuccessLog("finished")
	ErrorLog("broken")

	out := buf.String()
	if strings.Contains(out, "chatter") || strings.Contains(out, "finished") {
		t.Errorf("non-error output in quiet mode:\n%s", out)
	}
	if !strings.Contains(out, "error broken") {
		t.Errorf("error line missing:\n%s", out)
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	buf := captureLog(t, LevelInfo)
	SetVerbose(true)

	DebugLog("trace detail")
	if !strings.Contains(buf.String(), "debug trace detail") {
		t.Errorf("debug line missing after SetVerbose:\n%s", buf.String())
	}
}

func TestSuccessTag(t *testing.T) {
	buf := captureLog(t, LevelInfo)

	SuccessLog("import complete")
	if !strings.Contains(buf.String(), "done  import complete") {
		t.Errorf("success line missing or mis-tagged:\n%s", buf.String())
	}
}
