// Package audiocache stores downloaded chapter recitations on disk, keyed
// by (chapter, reciter). Presence of the file is the existence proof; no
// separate metadata is kept.
package audiocache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/franz/hifz/internal/util"
)

// Cache is a filesystem-backed audio blob store. Public methods are the
// only mutation path; a mutex serializes bookkeeping so concurrent fills
// of the same key cannot corrupt each other. Data is written to a
// temporary file and atomically renamed into place.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New opens (creating if needed) a cache rooted at dir
func New(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty cache directory", util.ErrInvalidRef)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create cache directory: %v", util.ErrStorage, err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root directory
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file path a cached entry would live at
func (c *Cache) Path(chapter, reciterID int) string {
	return filepath.Join(c.dir, fmt.Sprintf("chapter_%03d_reciter_%d.mp3", chapter, reciterID))
}

// Has reports whether a chapter recitation is cached
func (c *Cache) Has(chapter, reciterID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, err := os.Stat(c.Path(chapter, reciterID))
	return err == nil && info.Size() > 0
}

// Put streams r into the cache under (chapter, reciterID) and returns the
// final path. totalBytes drives the optional progress callback and may be
// -1 when unknown. If the entry already exists the stream is drained no
// further and the existing path is returned.
func (c *Cache) Put(chapter, reciterID int, r io.Reader, totalBytes int64, progress func(float64)) (string, error) {
	final := c.Path(chapter, reciterID)

	// A concurrent fill for the same key may have landed already
	if c.Has(chapter, reciterID) {
		util.DebugLog("Cache: chapter %d reciter %d already present, skipping write", chapter, reciterID)
		return final, nil
	}

	tmp, err := os.CreateTemp(c.dir, filepath.Base(final)+".partial-*")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temp file: %v", util.ErrStorage, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	written, err := io.Copy(tmp, &progressReader{r: r, total: totalBytes, progress: progress})
	if err != nil {
		cleanup()
		return "", fmt.Errorf("%w: failed to write audio data: %v", util.ErrNetwork, err)
	}
	if written == 0 {
		cleanup()
		return "", fmt.Errorf("%w: empty audio stream", util.ErrDecode)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: failed to finalize temp file: %v", util.ErrStorage, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Second writer detection: keep whichever copy completed first
	if info, err := os.Stat(final); err == nil && info.Size() > 0 {
		os.Remove(tmpPath)
		return final, nil
	}

	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: failed to move audio into cache: %v", util.ErrStorage, err)
	}

	if progress != nil {
		progress(1.0)
	}

	return final, nil
}

// Remove deletes a cached entry; removing an absent entry is not an error
func (c *Cache) Remove(chapter, reciterID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.Path(chapter, reciterID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to remove cached audio: %v", util.ErrStorage, err)
	}
	return nil
}

// CachedChapters returns the set of chapters cached for a reciter
func (c *Cache) CachedChapters(reciterID int) (map[int]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pattern := filepath.Join(c.dir, fmt.Sprintf("chapter_*_reciter_%d.mp3", reciterID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list cache: %v", util.ErrStorage, err)
	}

	chapters := make(map[int]bool, len(matches))
	for _, m := range matches {
		var chapter, reciter int
		_, err := fmt.Sscanf(filepath.Base(m), "chapter_%03d_reciter_%d.mp3", &chapter, &reciter)
		if err != nil || reciter != reciterID {
			continue
		}
		chapters[chapter] = true
	}
	return chapters, nil
}

// TotalSize returns the combined size of all cached files in bytes
func (c *Cache) TotalSize() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read cache directory: %v", util.ErrStorage, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return total, nil
}

// progressReader reports fractional read progress against a known total
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.progress != nil && p.total > 0 {
		frac := float64(p.read) / float64(p.total)
		if frac > 1 {
			frac = 1
		}
		p.progress(frac)
	}
	return n, err
}
