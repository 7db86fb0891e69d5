package board

import "fmt"

// NoPiece marks an absent piece, e.g. the capture slot of a quiet move.
var NoPiece = Piece{Type: NoPieceType, Color: NoColor, Square: NoSquare}

// Move is a piece travelling to a destination square, optionally
// capturing whatever stands there. Piece.Square is the origin.
type Move struct {
	Piece    Piece
	To       Square
	Captured Piece
}

// NoMove represents an invalid or null move.
var NoMove = Move{Piece: NoPiece, To: NoSquare, Captured: NoPiece}

// moveTo builds the move of pc to sq on pos, filling in the capture.
func moveTo(pos *Position, pc Piece, to Square) Move {
	captured, ok := pos.PieceAt(to)
	if !ok {
		captured = NoPiece
	}
	return Move{Piece: pc, To: to, Captured: captured}
}

// NewMove creates the move of whatever stands on from to to.
func NewMove(pos *Position, from, to Square) (Move, error) {
	if !from.IsValid() || !to.IsValid() {
		return NoMove, ErrInvalidSquare
	}
	pc, ok := pos.PieceAt(from)
	if !ok {
		return NoMove, fmt.Errorf("%w: %s", ErrNoPiece, from)
	}
	return moveTo(pos, pc, to), nil
}

// From returns the origin square.
func (m Move) From() Square {
	return m.Piece.Square
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m.Captured.Type != NoPieceType
}

// CapturesKing returns true if the move takes a king.
func (m Move) CapturesKing() bool {
	return m.Captured.Type == King
}

// String returns the coordinate form of the move (e.g., "e2e4").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return m.From().String() + m.To.String()
}

// ParseMove parses a coordinate move string against pos.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	return NewMove(pos, from, to)
}
