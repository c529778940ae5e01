package player

import (
	"sort"

	"github.com/franz/hifz/internal/quran"
)

// TimingTable maps playback position to verse number for one chapter audio
// file. It lives only for the duration of a playback session.
type TimingTable []quran.VerseTiming

// NewTimingTable copies the entries and sorts them by verse number
func NewTimingTable(entries []quran.VerseTiming) TimingTable {
	t := make(TimingTable, len(entries))
	copy(t, entries)
	sort.Slice(t, func(i, j int) bool { return t[i].VerseNumber < t[j].VerseNumber })
	return t
}

// VerseAt returns the verse whose [start,end) interval contains the
// position. Positions past the last entry's start map to the last verse;
// positions before the first entry map to the first. Returns false only
// for an empty table.
func (t TimingTable) VerseAt(position float64) (int, bool) {
	if len(t) == 0 {
		return 0, false
	}

	// Last entry whose start is <= position
	idx := sort.Search(len(t), func(i int) bool { return t[i].StartSecs > position }) - 1
	if idx < 0 {
		return t[0].VerseNumber, true
	}
	return t[idx].VerseNumber, true
}

// Bounds returns the [start,end) interval of a verse
func (t TimingTable) Bounds(verse int) (start, end float64, ok bool) {
	for _, e := range t {
		if e.VerseNumber == verse {
			return e.StartSecs, e.EndSecs, true
		}
	}
	return 0, 0, false
}
