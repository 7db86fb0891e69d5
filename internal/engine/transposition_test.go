package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestLowerEntryReturnedUntilNextRotation(t *testing.T) {
	tt := NewTranspositionTable()
	const key = uint64(0xdeadbeef)
	want := LowerEntry{Depth: 4, Score: 120, SideToMove: board.White}

	tt.StoreLower(key, false, want)
	if lower, _ := tt.Lookup(key, false); lower != nil {
		t.Fatal("a write was visible before rotation")
	}

	tt.Rotate()
	for _, gamma := range []int{-MateUpper, 0, 119, 120} {
		lower, upper := tt.Lookup(key, false)
		if lower == nil {
			t.Fatalf("gamma %d: lower bound missing", gamma)
		}
		if *lower != want {
			t.Errorf("gamma %d: got %+v, want %+v", gamma, *lower, want)
		}
		if lower.Score < gamma {
			t.Errorf("gamma %d: stored bound %d does not cover it", gamma, lower.Score)
		}
		if upper != nil {
			t.Errorf("unexpected upper bound %+v", *upper)
		}
	}

	tt.Rotate()
	if lower, _ := tt.Lookup(key, false); lower != nil {
		t.Error("entry survived two rotations")
	}
}

func TestRootFlagIsPartOfTheKey(t *testing.T) {
	tt := NewTranspositionTable()
	tt.StoreUpper(7, true, UpperEntry{Depth: 2, Score: -30})
	tt.Rotate()

	if _, upper := tt.Lookup(7, false); upper != nil {
		t.Error("root entry visible to a non-root lookup")
	}
	if _, upper := tt.Lookup(7, true); upper == nil || upper.Score != -30 {
		t.Errorf("root lookup = %+v", upper)
	}
}

func TestStoreIsLastWriteWins(t *testing.T) {
	tt := NewTranspositionTable()
	tt.StoreLower(1, false, LowerEntry{Depth: 6, Score: 300})
	tt.StoreLower(1, false, LowerEntry{Depth: 1, Score: 40})
	tt.Rotate()

	lower, _ := tt.Lookup(1, false)
	if lower == nil || lower.Depth != 1 || lower.Score != 40 {
		t.Errorf("got %+v, want the shallower later write", lower)
	}
	if n, o := tt.Len(); n != 0 || o != 1 {
		t.Errorf("Len() = %d, %d", n, o)
	}
}

func TestClearResetsTable(t *testing.T) {
	tt := NewTranspositionTable()
	tt.StoreLower(1, false, LowerEntry{Depth: 1, Score: 1})
	tt.Rotate()
	tt.Lookup(1, false)
	tt.Lookup(2, false)
	if got := tt.HitRate(); got != 50 {
		t.Errorf("HitRate() = %v, want 50", got)
	}

	tt.Clear()
	if lower, _ := tt.Lookup(1, false); lower != nil {
		t.Error("entry survived Clear")
	}
	if n, o := tt.Len(); n != 0 || o != 0 {
		t.Errorf("Len() after Clear = %d, %d", n, o)
	}
}
