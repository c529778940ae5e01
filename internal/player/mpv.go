package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/franz/hifz/internal/util"
)

// MPVOpener opens audio sources through an mpv subprocess controlled over
// its JSON IPC socket. mpv handles both local files and HTTP streams, so
// one backend covers cached and streaming playback.
type MPVOpener struct {
	// Binary overrides the mpv executable name, mainly for tests
	Binary string
}

// NewMPVOpener creates an opener using the mpv binary from PATH
func NewMPVOpener() *MPVOpener {
	return &MPVOpener{Binary: "mpv"}
}

// Open implements MediaOpener
func (o *MPVOpener) Open(ctx context.Context, source string) (Media, error) {
	bin := o.Binary
	if bin == "" {
		bin = "mpv"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("mpv binary: %w", util.ErrNotFound)
	}

	socket := filepath.Join(os.TempDir(), fmt.Sprintf("hifz-mpv-%d.sock", time.Now().UnixNano()))

	cmd := exec.Command(bin,
		"--no-video",
		"--really-quiet",
		"--pause", // start paused; the engine decides when to play
		"--keep-open=yes",
		"--input-ipc-server="+socket,
		source,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	conn, err := dialWithRetry(ctx, socket, 5*time.Second)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.Remove(socket)
		return nil, fmt.Errorf("failed to connect to mpv ipc: %w", err)
	}

	m := &mpvMedia{
		cmd:     cmd,
		conn:    conn,
		socket:  socket,
		pending: make(map[int64]chan mpvResponse),
	}
	go m.readLoop()

	// Wait for the file to be loaded enough to expose a duration
	m.waitLoaded(ctx)

	return m, nil
}

func dialWithRetry(ctx context.Context, socket string, timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type mpvResponse struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
}

type mpvMedia struct {
	cmd    *exec.Cmd
	conn   net.Conn
	socket string

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan mpvResponse
	closed  bool
}

// readLoop routes IPC responses to their callers; asynchronous mpv events
// carry no request_id and are dropped.
func (m *mpvMedia) readLoop() {
	scanner := bufio.NewScanner(m.conn)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		var resp mpvResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		if resp.RequestID == 0 {
			continue
		}
		m.mu.Lock()
		ch, ok := m.pending[resp.RequestID]
		delete(m.pending, resp.RequestID)
		m.mu.Unlock()
		if ok {
			ch <- resp
		}
	}

	// Connection gone: fail all outstanding requests
	m.mu.Lock()
	for id, ch := range m.pending {
		delete(m.pending, id)
		close(ch)
	}
	m.mu.Unlock()
}

// command issues an IPC command and waits for its response
func (m *mpvMedia) command(args ...any) (json.RawMessage, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("mpv: media closed")
	}
	m.nextID++
	id := m.nextID
	ch := make(chan mpvResponse, 1)
	m.pending[id] = ch
	m.mu.Unlock()

	msg, err := json.Marshal(map[string]any{
		"command":    args,
		"request_id": id,
	})
	if err != nil {
		return nil, err
	}

	if _, err := m.conn.Write(append(msg, '\n')); err != nil {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return nil, fmt.Errorf("mpv ipc write: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("mpv ipc connection closed")
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	case <-time.After(5 * time.Second):
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return nil, fmt.Errorf("mpv ipc timeout")
	}
}

func (m *mpvMedia) setProperty(name string, value any) error {
	_, err := m.command("set_property", name, value)
	return err
}

func (m *mpvMedia) getFloat(name string) (float64, error) {
	data, err := m.command("get_property", name)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// waitLoaded polls until mpv reports a duration, bounded by the context
// and a short deadline
func (m *mpvMedia) waitLoaded(ctx context.Context) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		if d, err := m.getFloat("duration"); err == nil && d > 0 {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (m *mpvMedia) Play() error {
	return m.setProperty("pause", false)
}

func (m *mpvMedia) Pause() error {
	return m.setProperty("pause", true)
}

func (m *mpvMedia) Seek(seconds float64) error {
	return m.setProperty("time-pos", seconds)
}

func (m *mpvMedia) SetRate(rate float64) error {
	return m.setProperty("speed", rate)
}

func (m *mpvMedia) Position() (float64, error) {
	return m.getFloat("time-pos")
}

func (m *mpvMedia) Duration() (float64, error) {
	return m.getFloat("duration")
}

func (m *mpvMedia) AtEnd() (bool, error) {
	data, err := m.command("get_property", "eof-reached")
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, err
	}
	return v, nil
}

func (m *mpvMedia) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	// Best-effort orderly shutdown; the socket write can fail if mpv
	// already exited
	msg, _ := json.Marshal(map[string]any{"command": []any{"quit"}})
	m.conn.Write(append(msg, '\n'))
	m.conn.Close()

	done := make(chan struct{})
	go func() {
		m.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		m.cmd.Process.Kill()
		<-done
	}

	os.Remove(m.socket)
	return nil
}
