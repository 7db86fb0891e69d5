package board

import "strings"

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// ParseColor parses "white"/"w" or "black"/"b", ignoring case.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(s) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	}
	return NoColor, false
}

// Forward returns the rank direction pawns of this color advance in.
func (c Color) Forward() int {
	if c == White {
		return 1
	}
	return -1
}

// PawnRank returns the rank pawns of this color start on.
func (c Color) PawnRank() int {
	if c == White {
		return 1
	}
	return 6
}

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "pnbrqk"[pt]
}

// Piece is a piece standing on a square. Pieces are plain values; a
// moved piece is a new Piece.
type Piece struct {
	Type   PieceType
	Color  Color
	Square Square
}

// NewPiece creates a piece of the given type and color on sq.
func NewPiece(pt PieceType, c Color, sq Square) Piece {
	return Piece{Type: pt, Color: c, Square: sq}
}

// At returns a copy of the piece standing on sq.
func (p Piece) At(sq Square) Piece {
	p.Square = sq
	return p
}

// Char returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) Char() byte {
	c := p.Type.Char()
	if p.Color == White && c != ' ' {
		return c - 'a' + 'A'
	}
	return c
}

// String returns the FEN character followed by the square (e.g. "Ne4").
func (p Piece) String() string {
	return string(p.Char()) + p.Square.String()
}

// code packs type and color into one byte for board storage.
// Encoded as: pieceType + color*6
type code uint8

const noCode code = 12

func encode(pt PieceType, c Color) code {
	if pt >= NoPieceType || c >= NoColor {
		return noCode
	}
	return code(pt) + code(c)*6
}

func (k code) pieceType() PieceType {
	if k >= noCode {
		return NoPieceType
	}
	return PieceType(k % 6)
}

func (k code) color() Color {
	if k >= noCode {
		return NoColor
	}
	return Color(k / 6)
}

// pieceFromChar converts a FEN character to a type and color.
func pieceFromChar(c byte) (PieceType, Color, bool) {
	switch c {
	case 'P':
		return Pawn, White, true
	case 'N':
		return Knight, White, true
	case 'B':
		return Bishop, White, true
	case 'R':
		return Rook, White, true
	case 'Q':
		return Queen, White, true
	case 'K':
		return King, White, true
	case 'p':
		return Pawn, Black, true
	case 'n':
		return Knight, Black, true
	case 'b':
		return Bishop, Black, true
	case 'r':
		return Rook, Black, true
	case 'q':
		return Queen, Black, true
	case 'k':
		return King, Black, true
	}
	return NoPieceType, NoColor, false
}
