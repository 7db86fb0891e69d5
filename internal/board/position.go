package board

import (
	"fmt"
	"strings"
)

// Position is a snapshot of piece placement and side to move.
//
// A Position is never modified after construction: Apply and the other
// transitions return a fresh copy, so a caller holding a *Position can
// keep reading it while others derive new positions from it.
type Position struct {
	cells [64]code
	side  Color
	hash  uint64
	kings [2]int
}

func emptyPosition(side Color) *Position {
	p := &Position{side: side}
	for i := range p.cells {
		p.cells[i] = noCode
	}
	return p
}

// NewPosition builds a position from a piece list. Pieces on invalid
// squares or two pieces on one square are rejected.
func NewPosition(side Color, pieces ...Piece) (*Position, error) {
	if side >= NoColor {
		return nil, fmt.Errorf("invalid side to move: %d", side)
	}
	p := emptyPosition(side)
	for _, pc := range pieces {
		if !pc.Square.IsValid() {
			return nil, fmt.Errorf("%w: %s on square %d", ErrInvalidSquare, pc.Type, pc.Square)
		}
		if pc.Type >= NoPieceType || pc.Color >= NoColor {
			return nil, fmt.Errorf("invalid piece %v", pc)
		}
		if p.cells[pc.Square] != noCode {
			return nil, fmt.Errorf("%w: %s", ErrSquareOccupied, pc.Square)
		}
		p.put(encode(pc.Type, pc.Color), pc.Square)
	}
	p.hash = p.computeHash()
	return p, nil
}

// StartPosition returns the standard 32-piece starting position.
func StartPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// put places a packed piece on an empty square (does not update hash).
func (p *Position) put(k code, sq Square) {
	p.cells[sq] = k
	if k.pieceType() == King {
		p.kings[k.color()]++
	}
}

// take clears a square and returns what stood there (does not update hash).
func (p *Position) take(sq Square) code {
	k := p.cells[sq]
	p.cells[sq] = noCode
	if k.pieceType() == King {
		p.kings[k.color()]--
	}
	return k
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color {
	return p.side
}

// Hash returns the Zobrist key of placement and side to move.
func (p *Position) Hash() uint64 {
	return p.hash
}

// PieceAt returns the piece at sq and whether there is one.
func (p *Position) PieceAt(sq Square) (Piece, bool) {
	if !sq.IsValid() || p.cells[sq] == noCode {
		return NoPiece, false
	}
	k := p.cells[sq]
	return Piece{Type: k.pieceType(), Color: k.color(), Square: sq}, true
}

// IsEmpty returns true if the square is on the board and empty.
func (p *Position) IsEmpty(sq Square) bool {
	return sq.IsValid() && p.cells[sq] == noCode
}

// colorAt returns the color of the occupant of sq, NoColor if empty.
func (p *Position) colorAt(sq Square) Color {
	return p.cells[sq].color()
}

// Pieces returns every piece on the board in square order.
func (p *Position) Pieces() []Piece {
	out := make([]Piece, 0, 32)
	for sq := A1; sq <= H8; sq++ {
		if pc, ok := p.PieceAt(sq); ok {
			out = append(out, pc)
		}
	}
	return out
}

// PiecesOf returns the pieces of one color in square order.
func (p *Position) PiecesOf(c Color) []Piece {
	out := make([]Piece, 0, 16)
	for sq := A1; sq <= H8; sq++ {
		if p.cells[sq] != noCode && p.cells[sq].color() == c {
			pc, _ := p.PieceAt(sq)
			out = append(out, pc)
		}
	}
	return out
}

// HasKing reports whether c still has a king on the board.
func (p *Position) HasKing(c Color) bool {
	return p.kings[c] > 0
}

// HasNonPawnMaterial returns true if the side to move has a piece other
// than pawns and king.
func (p *Position) HasNonPawnMaterial() bool {
	for _, k := range p.cells {
		if k != noCode && k.color() == p.side {
			if pt := k.pieceType(); pt != Pawn && pt != King {
				return true
			}
		}
	}
	return false
}

// Apply returns the position after m. The receiver is left untouched.
// The move is not checked for legality; callers confirm it first with
// IsMoveValid when it comes from outside the engine.
func (p *Position) Apply(m Move) *Position {
	next := *p
	from := m.From()
	moving := next.take(from)
	next.hash ^= zobristFor(moving, from)

	captured := next.take(m.To)
	next.hash ^= zobristFor(captured, m.To)

	next.put(moving, m.To)
	next.hash ^= zobristFor(moving, m.To)

	next.side = p.side.Other()
	next.hash ^= zobristSideToMove
	return &next
}

// Null returns the position with the turn passed to the other side.
// Used for null move pruning in search.
func (p *Position) Null() *Position {
	next := *p
	next.side = p.side.Other()
	next.hash ^= zobristSideToMove
	return &next
}

// Mirror returns the position with colors swapped and ranks flipped.
// The side to move keeps its color.
func (p *Position) Mirror() *Position {
	m := emptyPosition(p.side)
	for sq := A1; sq <= H8; sq++ {
		if k := p.cells[sq]; k != noCode {
			m.put(encode(k.pieceType(), k.color().Other()), sq.Mirror())
		}
	}
	m.hash = m.computeHash()
	return m
}

// WithSideToMove returns a copy of the position with the given side to move.
func (p *Position) WithSideToMove(c Color) *Position {
	if c == p.side {
		return p
	}
	return p.Null()
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			pc, ok := p.PieceAt(Square(rank*8 + file))
			if !ok {
				sb.WriteString(". ")
				continue
			}
			sb.WriteByte(pc.Char())
			sb.WriteByte(' ')
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.side)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.hash)
	return sb.String()
}
