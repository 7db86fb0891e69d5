// Package game runs a chess game session on top of the move rules and
// the engine: piece selection, move commits, engine replies and the end
// of the game when a king is captured.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	// ErrGameOver is returned for any move attempt after a king fell.
	ErrGameOver = errors.New("game: game is over")
	// ErrNotYourPiece is returned when selecting or moving an opponent piece.
	ErrNotYourPiece = errors.New("game: piece belongs to the other side")
)

// Options configure a new game.
type Options struct {
	ID          string
	Start       *board.Position // nil = standard start
	Mode        storage.GameMode
	PlayerColor board.Color // the human side in ModeHumanVsComputer
	Difficulty  engine.Difficulty
}

// Game is one game session. It is not safe for concurrent use.
type Game struct {
	id          string
	start       *board.Position
	position    *board.Position
	moveHistory []board.Move

	mode        storage.GameMode
	playerColor board.Color
	engine      *engine.Engine

	gameOver  bool
	winner    board.Color
	createdAt time.Time

	log zerolog.Logger
}

// New creates a game session. eng may be nil for human-only games.
func New(eng *engine.Engine, logger zerolog.Logger, opts Options) *Game {
	start := opts.Start
	if start == nil {
		start = board.StartPosition()
	}
	if eng != nil {
		eng.SetDifficulty(opts.Difficulty)
	}
	g := &Game{
		id:          opts.ID,
		start:       start,
		position:    start,
		mode:        opts.Mode,
		playerColor: opts.PlayerColor,
		engine:      eng,
		winner:      board.NoColor,
		createdAt:   time.Now(),
		log:         logger.With().Str("game", opts.ID).Logger(),
	}
	g.checkGameEnd()
	return g
}

// Restore rebuilds a session from a stored record by replaying its moves.
func Restore(rec *storage.GameRecord, eng *engine.Engine, logger zerolog.Logger) (*Game, error) {
	start := board.StartPosition()
	if rec.StartFEN != "" {
		var err error
		if start, err = board.ParseFEN(rec.StartFEN); err != nil {
			return nil, fmt.Errorf("restore %s: %w", rec.ID, err)
		}
	}
	player, ok := board.ParseColor(rec.PlayerColor)
	if !ok {
		player = board.White
	}
	diff, _ := engine.ParseDifficulty(rec.Difficulty)

	g := New(eng, logger, Options{
		ID:          rec.ID,
		Start:       start,
		Mode:        rec.Mode,
		PlayerColor: player,
		Difficulty:  diff,
	})
	if !rec.CreatedAt.IsZero() {
		g.createdAt = rec.CreatedAt
	}
	for i, s := range rec.Moves {
		m, err := board.ParseMove(s, g.position)
		if err != nil {
			return nil, fmt.Errorf("restore %s: move %d: %w", rec.ID, i+1, err)
		}
		if _, err := g.Commit(m.From(), m.To); err != nil {
			return nil, fmt.Errorf("restore %s: move %d %s: %w", rec.ID, i+1, s, err)
		}
	}
	return g, nil
}

// Select returns the highlight destinations for the piece on sq.
func (g *Game) Select(sq board.Square) ([]board.Square, error) {
	pc, err := g.ownPiece(sq)
	if err != nil {
		return nil, err
	}
	return board.GenerateMoves(pc, g.position), nil
}

// Commit plays from-to for the side to move after confirming it with
// board.IsMoveValid. Capturing a king ends the game.
func (g *Game) Commit(from, to board.Square) (board.Move, error) {
	if g.gameOver {
		return board.NoMove, ErrGameOver
	}
	pc, err := g.ownPiece(from)
	if err != nil {
		return board.NoMove, err
	}
	if !to.IsValid() {
		return board.NoMove, fmt.Errorf("destination %d: %w", to, board.ErrInvalidSquare)
	}
	if !board.IsMoveValid(pc, to, g.position) {
		return board.NoMove, fmt.Errorf("%s to %s: %w", pc, to, board.ErrIllegalMove)
	}

	m, err := board.NewMove(g.position, from, to)
	if err != nil {
		return board.NoMove, err
	}
	g.makeMove(m)
	return m, nil
}

// EngineMove asks the engine for a move for the side to move and plays it.
func (g *Game) EngineMove(ctx context.Context) (board.Move, int, error) {
	if g.gameOver {
		return board.NoMove, 0, ErrGameOver
	}
	if g.engine == nil {
		return board.NoMove, 0, errors.New("game: no engine attached")
	}

	g.log.Debug().Str("side", g.position.SideToMove().String()).Msg("engine thinking")
	m, score, err := g.engine.Search(ctx, g.position)
	if err != nil {
		return board.NoMove, 0, fmt.Errorf("engine search: %w", err)
	}
	if _, err := g.Commit(m.From(), m.To); err != nil {
		return board.NoMove, 0, fmt.Errorf("engine move %s: %w", m, err)
	}
	return m, score, nil
}

// EngineToMove reports whether the engine owns the side to move.
func (g *Game) EngineToMove() bool {
	return !g.gameOver && g.mode == storage.ModeHumanVsComputer &&
		g.position.SideToMove() != g.playerColor
}

func (g *Game) ownPiece(sq board.Square) (board.Piece, error) {
	if g.gameOver {
		return board.NoPiece, ErrGameOver
	}
	pc, ok := g.position.PieceAt(sq)
	if !ok {
		if !sq.IsValid() {
			return board.NoPiece, fmt.Errorf("square %d: %w", sq, board.ErrInvalidSquare)
		}
		return board.NoPiece, fmt.Errorf("%s: %w", sq, board.ErrNoPiece)
	}
	if pc.Color != g.position.SideToMove() {
		return board.NoPiece, fmt.Errorf("%s: %w", pc, ErrNotYourPiece)
	}
	return pc, nil
}

// makeMove applies a validated move to the game.
func (g *Game) makeMove(m board.Move) {
	g.position = g.position.Apply(m)
	g.moveHistory = append(g.moveHistory, m)

	g.log.Info().
		Str("move", m.String()).
		Str("piece", m.Piece.String()).
		Bool("capture", m.IsCapture()).
		Msg("move committed")

	g.checkGameEnd()
}

// checkGameEnd ends the game once a side has lost its king.
func (g *Game) checkGameEnd() {
	for _, c := range []board.Color{board.White, board.Black} {
		if !g.position.HasKing(c) {
			g.finish(c.Other())
			return
		}
	}
}

func (g *Game) finish(winner board.Color) {
	g.gameOver = true
	g.winner = winner
	g.log.Info().Str("winner", winner.String()).Int("moves", len(g.moveHistory)).Msg("game over")
}

// ID returns the game identifier.
func (g *Game) ID() string {
	return g.id
}

// Position returns the current position.
func (g *Game) Position() *board.Position {
	return g.position
}

// MoveHistory returns the moves played so far.
func (g *Game) MoveHistory() []board.Move {
	return append([]board.Move(nil), g.moveHistory...)
}

// SANHistory returns the moves played so far in SAN.
func (g *Game) SANHistory() []string {
	return board.MovesToSAN(g.start, g.moveHistory)
}

// GameOver reports whether a king has been captured.
func (g *Game) GameOver() bool {
	return g.gameOver
}

// Winner returns the winning color, or NoColor while the game runs.
func (g *Game) Winner() board.Color {
	return g.winner
}

// GameResult returns a human-readable result.
func (g *Game) GameResult() string {
	if !g.gameOver {
		return ""
	}
	if g.winner == board.White {
		return "White wins by capturing the king"
	}
	return "Black wins by capturing the king"
}

// Mode returns the game mode.
func (g *Game) Mode() storage.GameMode {
	return g.mode
}

// PlayerColor returns the human side in ModeHumanVsComputer.
func (g *Game) PlayerColor() board.Color {
	return g.playerColor
}

// Duration returns the time since the game was created.
func (g *Game) Duration() time.Duration {
	return time.Since(g.createdAt)
}

// Record converts the session into a storage record.
func (g *Game) Record() *storage.GameRecord {
	moves := make([]string, len(g.moveHistory))
	for i, m := range g.moveHistory {
		moves[i] = m.String()
	}
	rec := &storage.GameRecord{
		ID:          g.id,
		StartFEN:    g.start.FEN(),
		Moves:       moves,
		Mode:        g.mode,
		PlayerColor: g.playerColor.String(),
		Over:        g.gameOver,
		CreatedAt:   g.createdAt,
	}
	if g.engine != nil {
		rec.Difficulty = g.engine.Difficulty().String()
	}
	if g.gameOver {
		rec.Winner = g.winner.String()
	}
	return rec
}
