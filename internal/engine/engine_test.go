package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
)

func TestBoundAfterKingCapture(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1")
	m, err := board.NewMove(pos, board.E1, board.E8)
	if err != nil {
		t.Fatalf("NewMove: %v", err)
	}
	next := pos.Apply(m)

	for _, gamma := range []int{-MateUpper, -MateLower, -1, 0, 1, MateLower, MateUpper} {
		for _, depth := range []int{-3, 0, 1, 4} {
			s := NewSearcher()
			if got := s.Bound(next, gamma, depth, false); got > -MateLower {
				t.Errorf("gamma %d depth %d: Bound = %d, want <= %d", gamma, depth, got, -MateLower)
			}
			if s.Nodes() != 1 {
				t.Errorf("gamma %d depth %d: searched %d nodes, want 1", gamma, depth, s.Nodes())
			}
			if n, _ := s.Table().Len(); n != 0 {
				t.Errorf("gamma %d depth %d: terminal node wrote %d entries", gamma, depth, n)
			}
		}
	}
}

func TestBoundIsFailSoftConsistent(t *testing.T) {
	pos := board.StartPosition()
	s := NewSearcher()
	low := s.Bound(pos, -MateUpper+1, 2, true)
	if low < -MateUpper+1 {
		t.Errorf("Bound at minimal gamma failed low: %d", low)
	}
	s.Clear()
	high := s.Bound(pos, MateLower, 2, true)
	if high >= MateLower {
		t.Errorf("start position proved a king capture: %d", high)
	}
}

func TestBoundFailsLowWhenEveryMoveLosesTheKing(t *testing.T) {
	// Back-rank mate: every black move leaves the king to the rook.
	pos := mustFEN(t, "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1")
	for _, gamma := range []int{-62000, -65000, -MateUpper + 1} {
		s := NewSearcher()
		got := s.Bound(pos, gamma, 2, false)
		if got >= gamma {
			t.Errorf("gamma %d: Bound = %d, want a fail-low score below gamma", gamma, got)
		}
		if got > -MateLower {
			t.Errorf("gamma %d: Bound = %d, want <= %d", gamma, got, -MateLower)
		}
		s.Table().Rotate()
		if lower, _ := s.Table().Lookup(pos.Hash(), false); lower != nil {
			t.Errorf("gamma %d: lost position stored a lower bound %+v", gamma, *lower)
		}
	}
}

func TestBoundTableCutoffs(t *testing.T) {
	pos := board.StartPosition()

	tests := []struct {
		name  string
		upper *UpperEntry
		lower *LowerEntry
		gamma int
		depth int
		want  int
	}{
		{"upper at or below gamma", &UpperEntry{Depth: 5, Score: -40}, nil, 0, 3, -40},
		{"upper equal to gamma", &UpperEntry{Depth: 3, Score: 10}, nil, 10, 3, 10},
		{"lower at or above gamma", nil, &LowerEntry{Depth: 5, Score: 70, SideToMove: board.White}, 50, 3, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher()
			if tt.upper != nil {
				s.Table().StoreUpper(pos.Hash(), false, *tt.upper)
			}
			if tt.lower != nil {
				s.Table().StoreLower(pos.Hash(), false, *tt.lower)
			}
			s.Table().Rotate()

			if got := s.Bound(pos, tt.gamma, tt.depth, false); got != tt.want {
				t.Errorf("Bound = %d, want %d", got, tt.want)
			}
			if s.Nodes() != 1 {
				t.Errorf("searched %d nodes, want 1", s.Nodes())
			}
			if n, _ := s.Table().Len(); n != 0 {
				t.Errorf("table cutoff wrote %d entries", n)
			}
		})
	}
}

func TestBoundSearchesPastUnusableEntries(t *testing.T) {
	pos := board.StartPosition()
	s := NewSearcher()
	// Too shallow for depth 3, and an upper bound above gamma proves nothing.
	s.Table().StoreUpper(pos.Hash(), false, UpperEntry{Depth: 1, Score: -40})
	s.Table().StoreLower(pos.Hash(), false, LowerEntry{Depth: 5, Score: -10, SideToMove: board.White})
	s.Table().Rotate()

	s.Bound(pos, 0, 3, false)
	if s.Nodes() == 1 {
		t.Error("Bound returned from the table without a usable entry")
	}
}

func TestBoundReducesDepthWithoutLowerEntry(t *testing.T) {
	pos := board.StartPosition()

	storedDepth := func(s *Searcher) int {
		t.Helper()
		s.Table().Rotate()
		lower, upper := s.Table().Lookup(pos.Hash(), false)
		switch {
		case lower != nil:
			return lower.Depth
		case upper != nil:
			return upper.Depth
		}
		t.Fatal("no entry stored for the searched node")
		return -1
	}

	s := NewSearcher()
	s.Bound(pos, 0, 2, false)
	if got := storedDepth(s); got != 1 {
		t.Errorf("without a lower entry stored depth = %d, want 1", got)
	}

	// A lower entry that does not cut keeps the full depth.
	s = NewSearcher()
	s.Table().StoreLower(pos.Hash(), false, LowerEntry{Depth: 0, Score: -500, SideToMove: board.White})
	s.Table().Rotate()
	s.Bound(pos, 0, 2, false)
	if got := storedDepth(s); got != 2 {
		t.Errorf("with a lower entry stored depth = %d, want 2", got)
	}
}

func TestSearchFindsKingCapture(t *testing.T) {
	eng := NewEngine(zerolog.Nop())
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1")

	m, score, err := eng.SearchBestMove(context.Background(), pos, 3)
	if err != nil {
		t.Fatalf("SearchBestMove: %v", err)
	}
	if m.String() != "e1e8" {
		t.Errorf("best move = %s, want e1e8", m)
	}
	if score < MateLower {
		t.Errorf("score = %d, want >= %d", score, MateLower)
	}
}

func TestSearchWinsHangingQueen(t *testing.T) {
	eng := NewEngine(zerolog.Nop())
	pos := mustFEN(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")

	m, score, err := eng.SearchBestMove(context.Background(), pos, 3)
	if err != nil {
		t.Fatalf("SearchBestMove: %v", err)
	}
	if m.String() != "d2d5" {
		t.Errorf("best move = %s, want d2d5", m)
	}
	if score <= 0 {
		t.Errorf("score after winning the queen = %d, want > 0", score)
	}
}

func TestSearchBasic(t *testing.T) {
	pos := board.StartPosition()
	eng := NewEngine(zerolog.Nop())
	eng.SetDifficulty(Easy)

	var infos []SearchInfo
	eng.OnInfo = func(info SearchInfo) { infos = append(infos, info) }

	m, _, err := eng.Search(context.Background(), pos)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if m == board.NoMove {
		t.Fatal("Search returned NoMove for starting position")
	}
	if m.Piece.Color != board.White || !board.IsMoveValid(m.Piece, m.To, pos) {
		t.Errorf("Search returned an invalid move %s", m)
	}
	if len(infos) == 0 {
		t.Fatal("OnInfo was never called")
	}
	for i, info := range infos {
		if info.Depth != i+1 {
			t.Errorf("info %d reports depth %d", i, info.Depth)
		}
	}
	t.Logf("Best move: %s", m)
}

func TestSearchNoMoves(t *testing.T) {
	pos, err := board.NewPosition(board.White, board.NewPiece(board.King, board.Black, board.E8))
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	eng := NewEngine(zerolog.Nop())
	if _, _, err := eng.SearchBestMove(context.Background(), pos, 2); !errors.Is(err, ErrNoMoves) {
		t.Errorf("error = %v, want ErrNoMoves", err)
	}
}

func TestSearchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := NewEngine(zerolog.Nop())
	if _, _, err := eng.SearchBestMove(ctx, board.StartPosition(), 3); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestStopEndsSearchAfterCurrentPass(t *testing.T) {
	eng := NewEngine(zerolog.Nop())
	passes := 0
	eng.OnInfo = func(SearchInfo) {
		passes++
		eng.Stop()
	}

	m, _, err := eng.SearchBestMove(context.Background(), board.StartPosition(), 5)
	if err != nil {
		t.Fatalf("SearchBestMove: %v", err)
	}
	if passes != 1 {
		t.Errorf("ran %d passes after Stop, want 1", passes)
	}
	if m == board.NoMove {
		t.Error("no move after a completed pass")
	}
}

func TestMoveTimeLimitsDepth(t *testing.T) {
	eng := NewEngine(zerolog.Nop())
	start := time.Now()
	_, _, err := eng.SearchWithLimits(context.Background(), board.StartPosition(),
		SearchLimits{MoveTime: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("SearchWithLimits: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Errorf("search ran %v with a 50ms budget", elapsed)
	}
}

func TestAnalyzeConcurrently(t *testing.T) {
	positions := []*board.Position{
		mustFEN(t, "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1"),
		mustFEN(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1"),
		mustFEN(t, "4k3/8/8/8/8/8/8/8 w - - 0 1"),
	}
	results, err := Analyze(context.Background(), positions, SearchLimits{Depth: 2}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results) != len(positions) {
		t.Fatalf("got %d results, want %d", len(results), len(positions))
	}
	if results[0].Move.String() != "e1e8" {
		t.Errorf("result 0 move = %s, want e1e8", results[0].Move)
	}
	if results[1].Err != nil || results[1].Move == board.NoMove {
		t.Errorf("result 1 = %+v", results[1])
	}
	if !errors.Is(results[2].Err, ErrNoMoves) {
		t.Errorf("result 2 error = %v, want ErrNoMoves", results[2].Err)
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{105, "1.05"},
		{-250, "-2.50"},
		{MateLower, "King capture"},
		{-MateLower, "King lost"},
	}
	for _, tt := range tests {
		if got := ScoreToString(tt.score); got != tt.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestTimeManager(t *testing.T) {
	tm := NewTimeManager()

	tm.Init(ClockLimits{MoveTime: time.Second}, board.White, 0)
	if tm.OptimumTime() != time.Second || tm.MaximumTime() != time.Second {
		t.Errorf("movetime budget = %v / %v", tm.OptimumTime(), tm.MaximumTime())
	}

	tm.Init(ClockLimits{Depth: 4}, board.White, 0)
	if got := tm.Limits(4); got.MoveTime != 0 || got.Depth != 4 {
		t.Errorf("depth-only limits = %+v", got)
	}

	tm.Init(ClockLimits{Time: [2]time.Duration{time.Minute, 10 * time.Second}, MovesToGo: 10}, board.Black, 20)
	if got := tm.OptimumTime(); got != time.Second {
		t.Errorf("black optimum = %v, want 1s", got)
	}
	if tm.MaximumTime() > 8*time.Second {
		t.Errorf("black maximum %v exceeds 80%% of the clock", tm.MaximumTime())
	}
}

func TestSearchPrefersBookMove(t *testing.T) {
	pos := board.StartPosition()
	m, err := board.NewMove(pos, board.A2, board.A3)
	if err != nil {
		t.Fatalf("NewMove: %v", err)
	}
	b := book.New()
	b.Add(pos, m, 1)

	eng := NewEngine(zerolog.Nop())
	eng.SetBook(b)
	got, score, err := eng.SearchBestMove(context.Background(), pos, 4)
	if err != nil {
		t.Fatalf("SearchBestMove: %v", err)
	}
	if got != m {
		t.Errorf("move = %s, want book move a2a3", got)
	}
	if want := MoveValue(m); score != want {
		t.Errorf("score = %d, want %d", score, want)
	}

	// Out of book the search runs as usual.
	next := pos.Apply(m)
	if _, _, err := eng.SearchBestMove(context.Background(), next, 1); err != nil {
		t.Errorf("SearchBestMove out of book: %v", err)
	}
}
