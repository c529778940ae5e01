package player

import (
	"testing"

	"github.com/franz/hifz/internal/quran"
)

func testTable() TimingTable {
	return NewTimingTable([]quran.VerseTiming{
		{VerseNumber: 2, StartSecs: 5, EndSecs: 9},
		{VerseNumber: 1, StartSecs: 0, EndSecs: 5},
		{VerseNumber: 3, StartSecs: 9, EndSecs: 14},
	})
}

func TestVerseAt(t *testing.T) {
	table := testTable()

	tests := []struct {
		position float64
		want     int
	}{
		{0, 1},
		{4.99, 1},
		{5, 2},     // interval start belongs to the verse
		{7, 2},
		{8.99, 2},
		{9, 3},
		{13, 3},
		{14.5, 3},  // past the last start maps to the last verse
		{1000, 3},
		{-1, 1},    // before the first start maps to the first verse
	}
	for _, tt := range tests {
		got, ok := table.VerseAt(tt.position)
		if !ok {
			t.Errorf("VerseAt(%v) not ok", tt.position)
			continue
		}
		if got != tt.want {
			t.Errorf("VerseAt(%v) = %d, want %d", tt.position, got, tt.want)
		}
	}
}

func TestVerseAtEmptyTable(t *testing.T) {
	var table TimingTable
	if _, ok := table.VerseAt(3); ok {
		t.Error("empty table returned a verse")
	}
}

func TestNewTimingTableSorts(t *testing.T) {
	table := testTable()
	for i := 1; i < len(table); i++ {
		if table[i].VerseNumber <= table[i-1].VerseNumber {
			t.Fatalf("table not sorted: %+v", table)
		}
	}
}

func TestBounds(t *testing.T) {
	table := testTable()

	start, end, ok := table.Bounds(2)
	if !ok || start != 5 || end != 9 {
		t.Errorf("Bounds(2) = %v, %v, %v", start, end, ok)
	}
	if _, _, ok := table.Bounds(99); ok {
		t.Error("Bounds of unknown verse reported ok")
	}
}
