package engine

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
)

// ErrNoMoves is returned when the side to move has nothing to move.
var ErrNoMoves = errors.New("engine: no moves available")

// MaxDepth caps iterative deepening when no depth limit is given.
const MaxDepth = 32

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	BestMove board.Move
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = MaxDepth)
	MoveTime time.Duration // Time for this move (0 = no limit)
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply, 500ms
	Medium                   // 4 ply, 2s
	Hard                     // 6 ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 4, MoveTime: 2 * time.Second},
	Hard:   {Depth: 6, MoveTime: 5 * time.Second},
}

// ParseDifficulty maps "easy", "medium" or "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch s {
	case "easy":
		return Easy, true
	case "medium":
		return Medium, true
	case "hard":
		return Hard, true
	}
	return Medium, false
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	}
	return "medium"
}

// Engine drives the bound search: iterative deepening over root passes,
// each pass narrowing the score window by binary search on gamma.
// An Engine runs one search at a time.
type Engine struct {
	searcher   *Searcher
	difficulty Difficulty
	stopFlag   atomic.Bool
	book       *book.Book // optional opening book
	log        zerolog.Logger

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		searcher:   NewSearcher(),
		difficulty: Medium,
		log:        logger.With().Str("component", "engine").Logger(),
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// SetBook sets the opening book consulted before searching. nil disables it.
func (e *Engine) SetBook(b *book.Book) {
	e.book = b
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// Search finds the best move using the current difficulty settings.
func (e *Engine) Search(ctx context.Context, pos *board.Position) (board.Move, int, error) {
	return e.SearchWithLimits(ctx, pos, DifficultySettings[e.difficulty])
}

// SearchBestMove searches pos to the given depth and returns the best move
// with its score from the mover's perspective.
func (e *Engine) SearchBestMove(ctx context.Context, pos *board.Position, depth int) (board.Move, int, error) {
	return e.SearchWithLimits(ctx, pos, SearchLimits{Depth: depth})
}

// SearchWithLimits finds the best move with specific search limits.
// Cancellation, Stop and the move time are honored between root passes
// only; a pass in progress always completes.
func (e *Engine) SearchWithLimits(ctx context.Context, pos *board.Position, limits SearchLimits) (board.Move, int, error) {
	if err := ctx.Err(); err != nil {
		return board.NoMove, 0, err
	}
	moves := orderMoves(board.PseudoLegalMoves(pos))
	if len(moves) == 0 {
		return board.NoMove, 0, ErrNoMoves
	}
	if m, ok := e.book.Probe(pos); ok {
		score := Evaluate(pos) + MoveValue(m)
		e.log.Debug().Str("move", m.String()).Int("score", score).Msg("book move")
		return m, score, nil
	}

	e.stopFlag.Store(false)
	e.searcher.Reset()
	s := e.searcher

	maxDepth := MaxDepth
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	startTime := time.Now()
	var deadline time.Time
	if limits.MoveTime > 0 {
		// No new pass past the halfway mark.
		deadline = startTime.Add(limits.MoveTime / 2)
	}

	bestMove, bestScore := moves[0].move, Evaluate(pos)+moves[0].value

	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && e.shouldStop(ctx, deadline) {
			break
		}

		s.Table().Rotate()
		lower, upper := -MateUpper, MateUpper
		for lower < upper-EvalRoughness {
			gamma := (lower + upper + 1) / 2
			score := s.Bound(pos, gamma, depth, true)
			if score >= gamma {
				lower = score
			} else {
				upper = score
			}
		}
		// Make sure the root has a move recorded at the final bound.
		s.Bound(pos, lower, depth, true)

		if m, ok := s.BestMove(pos); ok {
			bestMove = m
		}
		bestScore = lower

		info := SearchInfo{
			Depth:    depth,
			Score:    bestScore,
			Nodes:    s.Nodes(),
			Time:     time.Since(startTime),
			BestMove: bestMove,
		}
		e.log.Debug().
			Int("depth", depth).
			Int("score", bestScore).
			Uint64("nodes", info.Nodes).
			Dur("elapsed", info.Time).
			Str("move", bestMove.String()).
			Msg("root pass complete")
		if e.OnInfo != nil {
			e.OnInfo(info)
		}

		// A king falls either way; deeper passes cannot change that.
		if bestScore >= MateLower || bestScore <= -MateLower {
			break
		}
	}

	return bestMove, bestScore, nil
}

func (e *Engine) shouldStop(ctx context.Context, deadline time.Time) bool {
	if e.stopFlag.Load() || ctx.Err() != nil {
		return true
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}

// Stop asks the running search to finish after its current root pass.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear clears the transposition table and move memory.
func (e *Engine) Clear() {
	e.searcher.Clear()
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score >= MateLower {
		return "King capture"
	}
	if score <= -MateLower {
		return "King lost"
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	cp := strconv.Itoa(score % 100)
	if len(cp) == 1 {
		cp = "0" + cp
	}
	return sign + strconv.Itoa(score/100) + "." + cp
}
