package board

import (
	"fmt"
	"strings"
)

// pieceLetters indexes SAN piece letters by PieceType.
const pieceLetters = "PNBRQK"

// ToSAN converts a move to Standard Algebraic Notation. A king capture is
// marked with '#', the rules here having no checkmate.
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	from := m.From()
	piece, ok := pos.PieceAt(from)
	if !ok {
		return m.String()
	}

	var sb strings.Builder
	pt := piece.Type

	if pt != Pawn {
		sb.WriteByte(pieceLetters[pt])
		sb.WriteString(disambiguation(pos, m))
	}

	if m.IsCapture() {
		if pt == Pawn {
			sb.WriteByte('a' + byte(from.File()))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(m.To.String())

	if m.CapturesKing() {
		sb.WriteByte('#')
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other pieces of its kind reaching the same square.
func disambiguation(pos *Position, m Move) string {
	from := m.From()
	var sameFile, sameRank, ambiguous bool
	for _, other := range PseudoLegalMoves(pos) {
		of := other.From()
		if other.To != m.To || of == from || other.Piece.Type != m.Piece.Type {
			continue
		}
		ambiguous = true
		sameFile = sameFile || of.File() == from.File()
		sameRank = sameRank || of.Rank() == from.Rank()
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// ParseSAN parses a SAN string and returns the matching move of the side
// to move. Check and king capture markers are accepted and ignored.
func ParseSAN(s string, pos *Position) (Move, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		idx := strings.IndexByte(pieceLetters, s[0])
		if idx < 0 {
			return NoMove, fmt.Errorf("%w: piece letter in %q", ErrIllegalMove, orig)
		}
		pt = PieceType(idx)
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidSquare, orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}
	s = s[:len(s)-2]

	disambigFile, disambigRank := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			disambigFile = int(c - 'a')
		case c >= '1' && c <= '8':
			disambigRank = int(c - '1')
		default:
			return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, orig)
		}
	}

	for _, m := range PseudoLegalMoves(pos) {
		from := m.From()
		switch {
		case m.To != dest, m.Piece.Type != pt:
			continue
		case disambigFile >= 0 && from.File() != disambigFile:
			continue
		case disambigRank >= 0 && from.Rank() != disambigRank:
			continue
		case isCapture && !m.IsCapture():
			continue
		}
		return m, nil
	}

	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
}

// MovesToSAN converts a move sequence played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	for i, m := range moves {
		result[i] = m.ToSAN(pos)
		pos = pos.Apply(m)
	}
	return result
}
