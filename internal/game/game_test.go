package game

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

func newTestGame(t *testing.T, fen string, mode storage.GameMode) *Game {
	t.Helper()
	opts := Options{ID: "test", Mode: mode, PlayerColor: board.White, Difficulty: engine.Easy}
	if fen != "" {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		opts.Start = pos
	}
	return New(engine.NewEngine(zerolog.Nop()), zerolog.Nop(), opts)
}

func TestSelect(t *testing.T) {
	g := newTestGame(t, "", storage.ModeHumanVsHuman)

	tests := []struct {
		name    string
		sq      board.Square
		want    int
		wantErr error
	}{
		{"white pawn", board.E2, 2, nil},
		{"white knight", board.G1, 2, nil},
		{"boxed rook", board.A1, 0, nil},
		{"empty square", board.E4, 0, board.ErrNoPiece},
		{"black piece", board.E7, 0, ErrNotYourPiece},
		{"off board", board.NoSquare, 0, board.ErrInvalidSquare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Select(tt.sq)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Select(%s) error = %v, want %v", tt.sq, err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("Select(%s) = %v, want %d squares", tt.sq, got, tt.want)
			}
		})
	}
}

func TestCommitAlternatesTurns(t *testing.T) {
	g := newTestGame(t, "", storage.ModeHumanVsHuman)

	if _, err := g.Commit(board.E2, board.E4); err != nil {
		t.Fatalf("e2e4: %v", err)
	}
	if g.Position().SideToMove() != board.Black {
		t.Fatal("turn did not pass to black")
	}
	if _, err := g.Commit(board.D2, board.D4); !errors.Is(err, ErrNotYourPiece) {
		t.Errorf("white moving twice: error = %v", err)
	}
	if _, err := g.Commit(board.E7, board.E5); err != nil {
		t.Fatalf("e7e5: %v", err)
	}
	if h := g.MoveHistory(); len(h) != 2 || h[0].String() != "e2e4" || h[1].String() != "e7e5" {
		t.Errorf("history = %v", h)
	}
	if san := g.SANHistory(); len(san) != 2 || san[0] != "e4" || san[1] != "e5" {
		t.Errorf("SAN history = %v", san)
	}
}

func TestCommitRejectsIllegalMoves(t *testing.T) {
	g := newTestGame(t, "", storage.ModeHumanVsHuman)

	tests := []struct {
		name     string
		from, to board.Square
		wantErr  error
	}{
		{"rook through pawn", board.A1, board.A3, board.ErrIllegalMove},
		{"pawn three squares", board.E2, board.E5, board.ErrIllegalMove},
		{"bishop onto own pawn", board.C1, board.D2, board.ErrIllegalMove},
		{"empty origin", board.E4, board.E5, board.ErrNoPiece},
		{"off-board destination", board.E2, board.NoSquare, board.ErrInvalidSquare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Commit(tt.from, tt.to); !errors.Is(err, tt.wantErr) {
				t.Errorf("Commit(%s, %s) error = %v, want %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
	if len(g.MoveHistory()) != 0 {
		t.Error("a rejected move was recorded")
	}
}

func TestCommitAllowsCaptureHighlightOmits(t *testing.T) {
	g := newTestGame(t, "4k3/8/8/p7/8/8/8/R3K3 w - - 0 1", storage.ModeHumanVsHuman)

	dests, err := g.Select(board.A1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, sq := range dests {
		if sq == board.A5 {
			t.Error("highlight should not offer the rook capture")
		}
	}
	m, err := g.Commit(board.A1, board.A5)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !m.IsCapture() || m.Captured.Type != board.Pawn {
		t.Errorf("move = %+v, want a pawn capture", m)
	}
}

func TestKingCaptureEndsGame(t *testing.T) {
	g := newTestGame(t, "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1", storage.ModeHumanVsHuman)

	if _, err := g.Commit(board.E1, board.E8); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !g.GameOver() || g.Winner() != board.White {
		t.Fatalf("GameOver = %v, Winner = %s", g.GameOver(), g.Winner())
	}
	if g.GameResult() == "" {
		t.Error("empty result for a finished game")
	}
	if _, err := g.Commit(board.G1, board.G2); !errors.Is(err, ErrGameOver) {
		t.Errorf("commit after game over: error = %v", err)
	}
	if _, err := g.Select(board.G1); !errors.Is(err, ErrGameOver) {
		t.Errorf("select after game over: error = %v", err)
	}
	if _, _, err := g.EngineMove(context.Background()); !errors.Is(err, ErrGameOver) {
		t.Errorf("engine move after game over: error = %v", err)
	}
}

func TestEngineMove(t *testing.T) {
	g := newTestGame(t, "4k3/8/8/8/8/8/8/4R1K1 b - - 0 1", storage.ModeHumanVsComputer)
	if !g.EngineToMove() {
		t.Fatal("engine should own black in a human-vs-computer game")
	}

	m, _, err := g.EngineMove(context.Background())
	if err != nil {
		t.Fatalf("EngineMove: %v", err)
	}
	if m.Piece.Color != board.Black {
		t.Errorf("engine moved %s", m.Piece)
	}
	if g.Position().SideToMove() != board.White || g.EngineToMove() {
		t.Error("turn did not pass back to the human")
	}
}

func TestRecordAndRestore(t *testing.T) {
	g := newTestGame(t, "", storage.ModeHumanVsComputer)
	for _, mv := range [][2]board.Square{{board.E2, board.E4}, {board.E7, board.E5}, {board.G1, board.F3}} {
		if _, err := g.Commit(mv[0], mv[1]); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	rec := g.Record()
	if rec.ID != "test" || len(rec.Moves) != 3 || rec.Difficulty != "easy" || rec.Over {
		t.Fatalf("record = %+v", rec)
	}

	restored, err := Restore(rec, engine.NewEngine(zerolog.Nop()), zerolog.Nop())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Position().Hash() != g.Position().Hash() {
		t.Errorf("restored position %q, want %q", restored.Position().FEN(), g.Position().FEN())
	}
	if restored.Mode() != storage.ModeHumanVsComputer || restored.PlayerColor() != board.White {
		t.Errorf("restored settings: mode %v, player %s", restored.Mode(), restored.PlayerColor())
	}

	rec.Moves = append(rec.Moves, "a1a8")
	if _, err := Restore(rec, nil, zerolog.Nop()); !errors.Is(err, ErrNotYourPiece) {
		t.Errorf("restore with a bad move: error = %v", err)
	}
}
