package engine

import (
	"slices"

	"github.com/hailam/chesscore/internal/board"
)

// Search constants
const (
	MateLower     = KingValue - 9260 // a score at or past this means a king fell
	MateUpper     = KingValue + 9260
	QSA           = 250 // per-ply move pruning margin
	QSB           = 50  // base move pruning margin
	EvalRoughness = 17  // driver stops narrowing once the window is this tight
	NullLimit     = 2   // null move needs depth above this
	IIDLimit      = 2   // internal iterative deepening needs depth above this
	IIDReduce     = 3   // depth reduction for the IID probe
)

// nullReduce is how much shallower the null-move child is searched.
const nullReduce = 3

// Searcher runs bound searches over one transposition table. It remembers
// the move that produced a cutoff in each position and tries it first
// next time. A Searcher is not safe for concurrent use.
type Searcher struct {
	tt    *TranspositionTable
	moves map[uint64]board.Move
	nodes uint64
}

// NewSearcher creates a searcher that owns a fresh transposition table.
func NewSearcher() *Searcher {
	return &Searcher{
		tt:    NewTranspositionTable(),
		moves: make(map[uint64]board.Move),
	}
}

// Table returns the searcher's transposition table.
func (s *Searcher) Table() *TranspositionTable {
	return s.tt
}

// Nodes returns the number of Bound calls since the last Reset.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Reset clears the node counter and the move memory. The table is kept.
func (s *Searcher) Reset() {
	s.nodes = 0
	clear(s.moves)
}

// Clear resets the searcher and empties its table.
func (s *Searcher) Clear() {
	s.Reset()
	s.tt.Clear()
}

// BestMove returns the remembered cutoff move for pos, if it is still
// valid there.
func (s *Searcher) BestMove(pos *board.Position) (board.Move, bool) {
	m, ok := s.moves[pos.Hash()]
	if !ok || m.Piece.Color != pos.SideToMove() || !board.IsMoveValid(m.Piece, m.To, pos) {
		return board.NoMove, false
	}
	m, err := board.NewMove(pos, m.Piece.Square, m.To)
	if err != nil {
		return board.NoMove, false
	}
	return m, true
}

// Bound answers whether the score of pos is at least gamma, searching
// depth plies. The result is fail-soft: a score >= gamma is a lower bound
// on the true score and a score < gamma is an upper bound.
func (s *Searcher) Bound(pos *board.Position, gamma, depth int, root bool) int {
	s.nodes++
	depth = max(depth, 0)

	// Our king is gone.
	if Evaluate(pos) <= -MateLower {
		return -MateLower
	}

	hash := pos.Hash()
	lower, upper := s.tt.Lookup(hash, root)
	if upper != nil && upper.Depth >= depth && upper.Score <= gamma {
		return upper.Score
	}
	if lower != nil && lower.Depth >= depth && lower.Score >= gamma {
		return lower.Score
	}
	if lower == nil {
		depth = max(depth-1, 0)
	}

	best := s.expand(pos, gamma, depth, root)

	if best >= gamma {
		s.tt.StoreLower(hash, root, LowerEntry{Depth: depth, Score: best, SideToMove: pos.SideToMove()})
	} else {
		s.tt.StoreUpper(hash, root, UpperEntry{Depth: depth, Score: best})
	}
	return best
}

// expand searches the children of pos in order: null move, stand pat,
// remembered best move, then the rest by descending MoveValue. It returns
// as soon as one of them reaches gamma.
func (s *Searcher) expand(pos *board.Position, gamma, depth int, root bool) int {
	best := -MateUpper
	searched := false

	if depth > NullLimit && !root && pos.HasNonPawnMaterial() {
		score := -s.Bound(pos.Null(), 1-gamma, depth-nullReduce, false)
		searched = true
		if best = max(best, score); best >= gamma {
			return best
		}
	}

	static := Evaluate(pos)
	if depth == 0 {
		searched = true
		if best = max(best, static); best >= gamma {
			return best
		}
	}

	floor := QSB - depth*QSA

	killer, ok := s.BestMove(pos)
	if !ok && depth > IIDLimit {
		s.Bound(pos, gamma, depth-IIDReduce, false)
		killer, ok = s.BestMove(pos)
	}
	if ok && MoveValue(killer) >= floor {
		score := -s.Bound(pos.Apply(killer), 1-gamma, depth-1, false)
		searched = true
		if best = max(best, score); best >= gamma {
			s.moves[pos.Hash()] = killer
			return best
		}
	}

	moves := orderMoves(board.PseudoLegalMoves(pos))
	for _, sm := range moves {
		m, val := sm.move, sm.value
		if val < floor {
			break
		}
		if ok && m == killer {
			continue
		}
		if depth <= 1 && static+val < gamma {
			// Futility: no remaining move can lift the static score to gamma.
			score := static + val
			if val >= MateLower {
				score = MateUpper
			}
			if best = max(best, score); best >= gamma {
				s.moves[pos.Hash()] = m
			}
			return best
		}
		score := -s.Bound(pos.Apply(m), 1-gamma, depth-1, false)
		searched = true
		if best = max(best, score); best >= gamma {
			s.moves[pos.Hash()] = m
			return best
		}
	}

	// Nothing was searched: resolve to the static evaluation.
	if !searched {
		return static
	}
	return best
}

type scoredMove struct {
	move  board.Move
	value int
}

// orderMoves pairs each move with its MoveValue, best first.
func orderMoves(moves []board.Move) []scoredMove {
	scored := make([]scoredMove, len(moves))
	for i, m := range moves {
		scored[i] = scoredMove{m, MoveValue(m)}
	}
	slices.SortStableFunc(scored, func(a, b scoredMove) int {
		return b.value - a.value
	})
	return scored
}
