package board

// Move rules live in one table indexed by piece type. Each rule answers
// three questions: the lightweight destination set used for highlighting,
// the full destination set, and whether a single destination is valid.
// The full set and the validity predicate share their geometry so they
// cannot disagree.
//
// The highlight variant keeps the board UI's historic behavior:
//   - pawns "capture" straight ahead and jump two squares without looking
//     at the passed-over square
//   - rooks, knights and kings never capture
//   - bishops capture, and queens capture along diagonals only
type rule interface {
	highlight(p Piece, pos *Position, dst []Square) []Square
	reach(p Piece, pos *Position, dst []Square) []Square
	valid(p Piece, to Square, pos *Position) bool
}

type delta struct{ df, dr int }

func (d delta) diagonal() bool {
	return d.df != 0 && d.dr != 0
}

var (
	orthogonal = []delta{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	diagonal   = []delta{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	royal      = append(append([]delta{}, orthogonal...), diagonal...)

	knightJumps = []delta{
		{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
		{1, -2}, {1, 2}, {2, -1}, {2, 1},
	}
)

var rules = [6]rule{
	Pawn:   pawnRule{},
	Knight: leaper{jumps: knightJumps},
	Bishop: slider{dirs: diagonal},
	Rook:   slider{dirs: orthogonal},
	Queen:  slider{dirs: royal},
	King:   leaper{jumps: royal},
}

// GenerateMoves returns the squares p could move to for move highlighting.
// The result has no duplicates and never leaves the board.
func GenerateMoves(p Piece, pos *Position) []Square {
	if p.Type >= NoPieceType || !p.Square.IsValid() {
		return nil
	}
	return rules[p.Type].highlight(p, pos, make([]Square, 0, 28))
}

// Destinations returns every square IsMoveValid accepts for p.
func Destinations(p Piece, pos *Position) []Square {
	if p.Type >= NoPieceType || !p.Square.IsValid() {
		return nil
	}
	return rules[p.Type].reach(p, pos, make([]Square, 0, 28))
}

// IsMoveValid reports whether p may move to to under full movement rules.
// It does not check whether the mover's own king is left capturable.
func IsMoveValid(p Piece, to Square, pos *Position) bool {
	if p.Type >= NoPieceType || !to.IsValid() || to == p.Square {
		return false
	}
	if on, ok := pos.PieceAt(p.Square); !ok || on.Type != p.Type || on.Color != p.Color {
		return false
	}
	if pos.colorAt(to) == p.Color {
		return false
	}
	return rules[p.Type].valid(p, to, pos)
}

// PseudoLegalMoves returns every move of the side to move, captures included.
func PseudoLegalMoves(pos *Position) []Move {
	moves := make([]Move, 0, 64)
	dst := make([]Square, 0, 28)
	for _, pc := range pos.PiecesOf(pos.SideToMove()) {
		dst = rules[pc.Type].reach(pc, pos, dst[:0])
		for _, to := range dst {
			moves = append(moves, moveTo(pos, pc, to))
		}
	}
	return moves
}

// IsPathEmpty reports whether every square strictly between begin and end
// is empty. The two squares must share a rank, file or diagonal; any
// other pair, or an off-board square, has no path and reports false.
func IsPathEmpty(begin, end Square, pos *Position) bool {
	if !begin.IsValid() || !end.IsValid() {
		return false
	}
	df := end.File() - begin.File()
	dr := end.Rank() - begin.Rank()
	if df != 0 && dr != 0 && abs(df) != abs(dr) {
		return false
	}
	step := delta{sign(df), sign(dr)}
	sq := begin
	for {
		next, ok := sq.Offset(step.df, step.dr)
		if !ok || next == end {
			return true
		}
		if !pos.IsEmpty(next) {
			return false
		}
		sq = next
	}
}

type pawnRule struct{}

func (pawnRule) highlight(p Piece, pos *Position, dst []Square) []Square {
	fwd := p.Color.Forward()
	if one, ok := p.Square.Offset(0, fwd); ok && pos.colorAt(one) != p.Color {
		dst = append(dst, one)
	}
	if p.Square.Rank() == p.Color.PawnRank() {
		two, _ := p.Square.Offset(0, 2*fwd)
		if pos.colorAt(two) != p.Color {
			dst = append(dst, two)
		}
	}
	return dst
}

func (r pawnRule) reach(p Piece, pos *Position, dst []Square) []Square {
	fwd := p.Color.Forward()
	for _, d := range []delta{{0, fwd}, {0, 2 * fwd}, {-1, fwd}, {1, fwd}} {
		if to, ok := p.Square.Offset(d.df, d.dr); ok && r.valid(p, to, pos) {
			dst = append(dst, to)
		}
	}
	return dst
}

func (pawnRule) valid(p Piece, to Square, pos *Position) bool {
	fwd := p.Color.Forward()
	df := to.File() - p.Square.File()
	dr := to.Rank() - p.Square.Rank()
	switch {
	case df == 0 && dr == fwd:
		return pos.IsEmpty(to)
	case df == 0 && dr == 2*fwd:
		return p.Square.Rank() == p.Color.PawnRank() &&
			IsPathEmpty(p.Square, to, pos) && pos.IsEmpty(to)
	case abs(df) == 1 && dr == fwd:
		return pos.colorAt(to) == p.Color.Other()
	}
	return false
}

// leaper moves a single fixed offset: knights and kings.
type leaper struct {
	jumps []delta
}

func (l leaper) highlight(p Piece, pos *Position, dst []Square) []Square {
	for _, d := range l.jumps {
		if to, ok := p.Square.Offset(d.df, d.dr); ok && pos.IsEmpty(to) {
			dst = append(dst, to)
		}
	}
	return dst
}

func (l leaper) reach(p Piece, pos *Position, dst []Square) []Square {
	for _, d := range l.jumps {
		if to, ok := p.Square.Offset(d.df, d.dr); ok && pos.colorAt(to) != p.Color {
			dst = append(dst, to)
		}
	}
	return dst
}

func (l leaper) valid(p Piece, to Square, pos *Position) bool {
	d := delta{to.File() - p.Square.File(), to.Rank() - p.Square.Rank()}
	for _, j := range l.jumps {
		if j == d {
			return true
		}
	}
	return false
}

// slider scans rays until the first occupant: bishops, rooks and queens.
type slider struct {
	dirs []delta
}

func (s slider) highlight(p Piece, pos *Position, dst []Square) []Square {
	for _, d := range s.dirs {
		for to, ok := p.Square.Offset(d.df, d.dr); ok; to, ok = to.Offset(d.df, d.dr) {
			if pos.IsEmpty(to) {
				dst = append(dst, to)
				continue
			}
			if d.diagonal() && pos.colorAt(to) != p.Color {
				dst = append(dst, to)
			}
			break
		}
	}
	return dst
}

func (s slider) reach(p Piece, pos *Position, dst []Square) []Square {
	for _, d := range s.dirs {
		for to, ok := p.Square.Offset(d.df, d.dr); ok; to, ok = to.Offset(d.df, d.dr) {
			if pos.IsEmpty(to) {
				dst = append(dst, to)
				continue
			}
			if pos.colorAt(to) != p.Color {
				dst = append(dst, to)
			}
			break
		}
	}
	return dst
}

func (s slider) valid(p Piece, to Square, pos *Position) bool {
	df := to.File() - p.Square.File()
	dr := to.Rank() - p.Square.Rank()
	if df != 0 && dr != 0 && abs(df) != abs(dr) {
		return false
	}
	dir := delta{sign(df), sign(dr)}
	for _, d := range s.dirs {
		if d == dir {
			return IsPathEmpty(p.Square, to, pos)
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
