package board

import (
	"errors"
	"testing"
)

func TestToSAN(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want string
	}{
		{"pawn push", StartFEN, "e2e4", "e4"},
		{"knight", StartFEN, "g1f3", "Nf3"},
		{"pawn capture", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", "exd5"},
		{"piece capture", "4k3/8/8/3p4/8/8/8/3RK3 w - - 0 1", "d1d5", "Rxd5"},
		{"file disambiguation", "4k3/8/8/8/8/8/4K3/R6R w - - 0 1", "a1d1", "Rad1"},
		{"rank disambiguation", "R3k3/8/8/8/8/8/8/R3K3 w - - 0 1", "a1a4", "R1a4"},
		{"king capture", "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1", "e1e8", "Rxe8#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := ParseFEN(tt.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			m, err := ParseMove(tt.move, pos)
			if err != nil {
				t.Fatalf("ParseMove: %v", err)
			}
			if got := m.ToSAN(pos); got != tt.want {
				t.Errorf("ToSAN = %q, want %q", got, tt.want)
			}

			back, err := ParseSAN(tt.want, pos)
			if err != nil {
				t.Fatalf("ParseSAN(%q): %v", tt.want, err)
			}
			if back != m {
				t.Errorf("ParseSAN(%q) = %s, want %s", tt.want, back, m)
			}
		})
	}
}

func TestParseSANErrors(t *testing.T) {
	pos := StartPosition()
	tests := []struct {
		san  string
		want error
	}{
		{"e5", ErrIllegalMove},
		{"Nd4", ErrIllegalMove},
		{"Zf3", ErrIllegalMove},
		{"zz", ErrInvalidSquare},
		{"N", ErrInvalidSquare},
		{"exd3", ErrIllegalMove},
	}
	for _, tt := range tests {
		if _, err := ParseSAN(tt.san, pos); !errors.Is(err, tt.want) {
			t.Errorf("ParseSAN(%q) error = %v, want %v", tt.san, err, tt.want)
		}
	}
}

func TestMovesToSAN(t *testing.T) {
	pos := StartPosition()
	var moves []Move
	p := pos
	for _, s := range []string{"e2e4", "e7e5", "g1f3", "b8c6"} {
		m, err := ParseMove(s, p)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		moves = append(moves, m)
		p = p.Apply(m)
	}

	want := []string{"e4", "e5", "Nf3", "Nc6"}
	got := MovesToSAN(pos, moves)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d = %q, want %q", i, got[i], want[i])
		}
	}
}
