package server

import (
	"encoding/json"
	"time"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/storage"
)

// MessageType represents the kinds of websocket messages.
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeEngine    MessageType = "engine"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeError     MessageType = "error"
)

// Message is a websocket envelope.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateGameRequest is the body of POST /api/games.
type CreateGameRequest struct {
	FEN         string `json:"fen"`
	Mode        string `json:"mode"`         // "hvh" or "hvc"
	PlayerColor string `json:"player_color"` // human side in "hvc"
	Difficulty  string `json:"difficulty"`
}

// MoveRequest is the body of POST /api/games/:id/moves and the payload of
// a websocket move. Either Move ("e2e4" or SAN such as "Nf3") or From and
// To are set.
type MoveRequest struct {
	Move string `json:"move"`
	From string `json:"from"`
	To   string `json:"to"`
}

// squares resolves the request to origin and destination squares on pos.
func (r MoveRequest) squares(pos *board.Position) (board.Square, board.Square, error) {
	from, to := r.From, r.To
	if r.Move != "" {
		if len(r.Move) == 4 {
			f, ferr := board.ParseSquare(r.Move[:2])
			t, terr := board.ParseSquare(r.Move[2:])
			if ferr == nil && terr == nil {
				return f, t, nil
			}
		}
		m, err := board.ParseSAN(r.Move, pos)
		if err != nil {
			return board.NoSquare, board.NoSquare, err
		}
		return m.From(), m.To, nil
	}
	f, err := board.ParseSquare(from)
	if err != nil {
		return board.NoSquare, board.NoSquare, err
	}
	t, err := board.ParseSquare(to)
	if err != nil {
		return board.NoSquare, board.NoSquare, err
	}
	return f, t, nil
}

// EvaluateRequest is the body of POST /api/evaluate. With Depth zero only
// the static evaluation is returned.
type EvaluateRequest struct {
	FEN   string   `json:"fen"`
	FENs  []string `json:"fens"`
	Depth int      `json:"depth"`
}

// Evaluation is one entry of the POST /api/evaluate response.
type Evaluation struct {
	FEN      string `json:"fen"`
	Static   int    `json:"static"`
	BestMove string `json:"best_move,omitempty"`
	Score    int    `json:"score,omitempty"`
	Nodes    uint64 `json:"nodes,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GameSummary is one entry of GET /api/games.
type GameSummary struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Moves     int       `json:"moves"`
	Over      bool      `json:"over"`
	Winner    string    `json:"winner,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	*storage.GameStats
	WinRate float64 `json:"win_rate"`
}

// SelectResponse lists the highlight squares for a piece.
type SelectResponse struct {
	Square       string   `json:"square"`
	Piece        string   `json:"piece"`
	Destinations []string `json:"destinations"`
}

// GameState is the public view of a game.
type GameState struct {
	ID         string   `json:"id"`
	FEN        string   `json:"fen"`
	SideToMove string   `json:"side_to_move"`
	Moves      []string `json:"moves"`
	SAN        []string `json:"san"`
	Mode       string   `json:"mode"`
	Eval       int      `json:"eval"`
	Over       bool     `json:"over"`
	Winner     string   `json:"winner,omitempty"`
	Result     string   `json:"result,omitempty"`
	LastScore  *int     `json:"last_engine_score,omitempty"`
}

func newGameState(g *game.Game) GameState {
	pos := g.Position()
	history := g.MoveHistory()
	moves := make([]string, len(history))
	for i, m := range history {
		moves[i] = m.String()
	}
	st := GameState{
		ID:         g.ID(),
		FEN:        pos.FEN(),
		SideToMove: pos.SideToMove().String(),
		Moves:      moves,
		SAN:        g.SANHistory(),
		Mode:       g.Mode().String(),
		Eval:       engine.Evaluate(pos),
		Over:       g.GameOver(),
		Result:     g.GameResult(),
	}
	if g.GameOver() {
		st.Winner = g.Winner().String()
	}
	return st
}
