package audiocache

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
	"github.com/franz/hifz/internal/util"
)

// EntryInfo describes a verified cache entry
type EntryInfo struct {
	Chapter   int
	ReciterID int
	Path      string
	SizeBytes int64
	FileType  string
	Title     string // embedded tag title, if any
}

// Verify checks that a cached entry exists and is a recognizable audio
// file, returning its details. Unreadable or unidentifiable files surface
// a decode error so callers can re-download them.
func (c *Cache) Verify(chapter, reciterID int) (*EntryInfo, error) {
	path := c.Path(chapter, reciterID)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("chapter %d reciter %d: %w", chapter, reciterID, util.ErrNotFound)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: empty cache file %s", util.ErrDecode, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", util.ErrStorage, path, err)
	}
	defer f.Close()

	entry := &EntryInfo{
		Chapter:   chapter,
		ReciterID: reciterID,
		Path:      path,
		SizeBytes: info.Size(),
	}

	format, fileType, err := tag.Identify(f)
	if err != nil {
		return nil, fmt.Errorf("%w: unrecognized audio file %s: %v", util.ErrDecode, path, err)
	}
	entry.FileType = string(fileType)
	if entry.FileType == "" {
		entry.FileType = string(format)
	}

	// Tags are optional on recitation files; use them when present
	if _, err := f.Seek(0, 0); err == nil {
		if meta, err := tag.ReadFrom(f); err == nil {
			entry.Title = meta.Title()
		}
	}

	return entry, nil
}
