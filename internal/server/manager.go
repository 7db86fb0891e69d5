package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	// ErrBadRequest marks malformed request parameters.
	ErrBadRequest = errors.New("bad request")
	// ErrNoStore is returned by persistence endpoints when no store is configured.
	ErrNoStore = errors.New("persistence disabled")
)

// session is a game plus the websocket clients watching it. mu guards
// both and serializes every move, engine search included.
type session struct {
	mu    sync.Mutex
	game  *game.Game
	conns map[*websocket.Conn]struct{}
}

// GameManager owns the live game sessions and persists them when a
// store is configured.
type GameManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	store    *storage.Storage // may be nil
	book     *book.Book       // may be nil
	log      zerolog.Logger
}

// NewGameManager creates a manager. store may be nil for in-memory games.
func NewGameManager(store *storage.Storage, logger zerolog.Logger) *GameManager {
	return &GameManager{
		sessions: make(map[string]*session),
		store:    store,
		log:      logger,
	}
}

// SetBook sets the opening book used by session engines created from now on.
func (gm *GameManager) SetBook(b *book.Book) {
	gm.book = b
}

func (gm *GameManager) newEngine() *engine.Engine {
	eng := engine.NewEngine(gm.log)
	eng.SetBook(gm.book)
	return eng
}

// CreateGame starts a new game. In human-vs-computer mode with the human
// playing black the engine makes the first move.
func (gm *GameManager) CreateGame(ctx context.Context, req CreateGameRequest) (GameState, error) {
	opts := game.Options{
		ID:          uuid.New().String(),
		Mode:        storage.ModeHumanVsHuman,
		PlayerColor: board.White,
		Difficulty:  engine.Medium,
	}
	if req.FEN != "" {
		pos, err := board.ParseFEN(req.FEN)
		if err != nil {
			return GameState{}, err
		}
		opts.Start = pos
	}
	switch req.Mode {
	case "", "hvh":
	case "hvc":
		opts.Mode = storage.ModeHumanVsComputer
	default:
		return GameState{}, fmt.Errorf("%w: mode %q", ErrBadRequest, req.Mode)
	}
	if req.PlayerColor != "" {
		c, ok := board.ParseColor(req.PlayerColor)
		if !ok {
			return GameState{}, fmt.Errorf("%w: player color %q", ErrBadRequest, req.PlayerColor)
		}
		opts.PlayerColor = c
	}
	if req.Difficulty == "" && gm.store != nil {
		if prefs, err := gm.store.LoadPreferences(); err == nil {
			req.Difficulty = prefs.Difficulty
		}
	}
	if req.Difficulty != "" {
		d, ok := engine.ParseDifficulty(req.Difficulty)
		if !ok {
			return GameState{}, fmt.Errorf("%w: difficulty %q", ErrBadRequest, req.Difficulty)
		}
		opts.Difficulty = d
	}

	s := &session{
		game:  game.New(gm.newEngine(), gm.log, opts),
		conns: make(map[*websocket.Conn]struct{}),
	}

	gm.mu.Lock()
	gm.sessions[opts.ID] = s
	gm.mu.Unlock()

	gm.log.Info().Str("game", opts.ID).Str("mode", opts.Mode.String()).Msg("game created")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game.EngineToMove() {
		if _, _, err := s.game.EngineMove(ctx); err != nil {
			return GameState{}, err
		}
	}
	if err := gm.persist(s.game); err != nil {
		return GameState{}, err
	}
	return newGameState(s.game), nil
}

// session returns the live session for id, restoring it from the store
// when it is not in memory.
func (gm *GameManager) session(id string) (*session, error) {
	gm.mu.RLock()
	s, ok := gm.sessions[id]
	gm.mu.RUnlock()
	if ok {
		return s, nil
	}
	if gm.store == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrGameNotFound, id)
	}

	rec, err := gm.store.LoadGame(id)
	if err != nil {
		return nil, err
	}
	g, err := game.Restore(rec, gm.newEngine(), gm.log)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if s, ok := gm.sessions[id]; ok {
		return s, nil
	}
	s = &session{game: g, conns: make(map[*websocket.Conn]struct{})}
	gm.sessions[id] = s
	gm.log.Info().Str("game", id).Int("moves", len(rec.Moves)).Msg("game restored")
	return s, nil
}

// GetGameState returns the current state of a game.
func (gm *GameManager) GetGameState(id string) (GameState, error) {
	s, err := gm.session(id)
	if err != nil {
		return GameState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return newGameState(s.game), nil
}

// Select returns the highlight squares for the piece on sq.
func (gm *GameManager) Select(id string, sq board.Square) (SelectResponse, error) {
	s, err := gm.session(id)
	if err != nil {
		return SelectResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dests, err := s.game.Select(sq)
	if err != nil {
		return SelectResponse{}, err
	}
	pc, _ := s.game.Position().PieceAt(sq)
	resp := SelectResponse{Square: sq.String(), Piece: pc.String(), Destinations: make([]string, len(dests))}
	for i, d := range dests {
		resp.Destinations[i] = d.String()
	}
	return resp, nil
}

// HandleMove commits a move and, in human-vs-computer games, the engine's
// reply. Watchers receive the new state.
func (gm *GameManager) HandleMove(ctx context.Context, id string, req MoveRequest) (GameState, error) {
	s, err := gm.session(id)
	if err != nil {
		return GameState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to, err := req.squares(s.game.Position())
	if err != nil {
		return GameState{}, err
	}
	if _, err := s.game.Commit(from, to); err != nil {
		return GameState{}, err
	}
	var last *int
	if s.game.EngineToMove() {
		_, score, err := s.game.EngineMove(ctx)
		if err != nil {
			gm.log.Warn().Err(err).Str("game", id).Msg("engine reply failed")
		} else {
			last = &score
		}
	}
	return gm.afterMove(s, last)
}

// EngineMove lets the engine play for the side to move.
func (gm *GameManager) EngineMove(ctx context.Context, id string) (GameState, error) {
	s, err := gm.session(id)
	if err != nil {
		return GameState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, score, err := s.game.EngineMove(ctx)
	if err != nil {
		return GameState{}, err
	}
	return gm.afterMove(s, &score)
}

// afterMove persists and broadcasts the session. s.mu must be held.
func (gm *GameManager) afterMove(s *session, score *int) (GameState, error) {
	if err := gm.persist(s.game); err != nil {
		return GameState{}, err
	}
	if s.game.GameOver() {
		gm.recordResult(s.game)
	}
	st := newGameState(s.game)
	st.LastScore = score
	gm.broadcast(s, st)
	return st, nil
}

func (gm *GameManager) persist(g *game.Game) error {
	if gm.store == nil {
		return nil
	}
	if err := gm.store.SaveGame(g.Record()); err != nil {
		return fmt.Errorf("save game %s: %w", g.ID(), err)
	}
	return nil
}

func (gm *GameManager) recordResult(g *game.Game) {
	if gm.store == nil || g.Mode() != storage.ModeHumanVsComputer {
		return
	}
	rec := g.Record()
	err := gm.store.RecordGame(storage.GameResult{
		Won:        g.Winner() == g.PlayerColor(),
		Mode:       g.Mode(),
		Difficulty: rec.Difficulty,
		Duration:   g.Duration(),
	})
	if err != nil {
		gm.log.Warn().Err(err).Str("game", g.ID()).Msg("failed to record result")
	}
}

// RegisterConnection adds a websocket watcher to a game and sends it the
// current state.
func (gm *GameManager) RegisterConnection(id string, c *websocket.Conn) error {
	s, err := gm.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
	return writeState(c, newGameState(s.game))
}

// UnregisterConnection removes a websocket watcher.
func (gm *GameManager) UnregisterConnection(id string, c *websocket.Conn) {
	gm.mu.RLock()
	s, ok := gm.sessions[id]
	gm.mu.RUnlock()
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// writeTo sends msg to one watcher, serialized with broadcasts.
func (gm *GameManager) writeTo(id string, c *websocket.Conn, msg Message) error {
	s, err := gm.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.WriteJSON(msg)
}

// broadcast sends st to every watcher. s.mu must be held.
func (gm *GameManager) broadcast(s *session, st GameState) {
	for c := range s.conns {
		if err := writeState(c, st); err != nil {
			gm.log.Debug().Err(err).Str("game", st.ID).Msg("dropping websocket watcher")
			delete(s.conns, c)
			c.Close()
		}
	}
}

// maxEvaluatePositions bounds one POST /api/evaluate batch.
const maxEvaluatePositions = 32

// Evaluate returns static evaluations, and searches when depth > 0. The
// search is held to the hard difficulty's depth and move time.
func (gm *GameManager) Evaluate(ctx context.Context, req EvaluateRequest) ([]Evaluation, error) {
	fens := req.FENs
	if req.FEN != "" {
		fens = append([]string{req.FEN}, fens...)
	}
	if len(fens) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrBadRequest)
	}
	if len(fens) > maxEvaluatePositions {
		return nil, fmt.Errorf("%w: %d positions, at most %d", ErrBadRequest, len(fens), maxEvaluatePositions)
	}

	positions := make([]*board.Position, len(fens))
	out := make([]Evaluation, len(fens))
	for i, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return nil, err
		}
		positions[i] = pos
		out[i] = Evaluation{FEN: pos.FEN(), Static: engine.Evaluate(pos)}
	}
	if req.Depth <= 0 {
		return out, nil
	}

	limits := engine.DifficultySettings[engine.Hard]
	limits.Depth = min(req.Depth, limits.Depth)
	results, err := engine.Analyze(ctx, positions, limits, gm.log)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		out[i].BestMove = r.Move.String()
		out[i].Score = r.Score
		out[i].Nodes = r.Nodes
	}
	return out, nil
}

// ListGames returns summaries of the stored games, most recent first.
func (gm *GameManager) ListGames() ([]GameSummary, error) {
	if gm.store == nil {
		return nil, ErrNoStore
	}
	recs, err := gm.store.ListGames()
	if err != nil {
		return nil, err
	}
	out := make([]GameSummary, len(recs))
	for i, rec := range recs {
		out[i] = GameSummary{
			ID:        rec.ID,
			Mode:      rec.Mode.String(),
			Moves:     len(rec.Moves),
			Over:      rec.Over,
			Winner:    rec.Winner,
			UpdatedAt: rec.UpdatedAt,
		}
	}
	return out, nil
}

// Stats returns the human-vs-computer record.
func (gm *GameManager) Stats() (StatsResponse, error) {
	if gm.store == nil {
		return StatsResponse{}, ErrNoStore
	}
	stats, err := gm.store.LoadStats()
	if err != nil {
		return StatsResponse{}, err
	}
	return StatsResponse{GameStats: stats, WinRate: stats.GetWinRate()}, nil
}

// Preferences returns the stored preferences.
func (gm *GameManager) Preferences() (*storage.UserPreferences, error) {
	if gm.store == nil {
		return nil, ErrNoStore
	}
	return gm.store.LoadPreferences()
}

// SavePreferences validates and stores prefs.
func (gm *GameManager) SavePreferences(prefs *storage.UserPreferences) error {
	if gm.store == nil {
		return ErrNoStore
	}
	if _, ok := engine.ParseDifficulty(prefs.Difficulty); !ok {
		return fmt.Errorf("%w: difficulty %q", ErrBadRequest, prefs.Difficulty)
	}
	if _, ok := board.ParseColor(prefs.PlayerColor); !ok {
		return fmt.Errorf("%w: player color %q", ErrBadRequest, prefs.PlayerColor)
	}
	if prefs.Depth < 0 || prefs.Depth > engine.MaxDepth {
		return fmt.Errorf("%w: depth %d", ErrBadRequest, prefs.Depth)
	}
	return gm.store.SavePreferences(prefs)
}

// DeleteGame drops a game from memory and the store. Watchers are
// disconnected.
func (gm *GameManager) DeleteGame(id string) error {
	gm.mu.Lock()
	s, live := gm.sessions[id]
	delete(gm.sessions, id)
	gm.mu.Unlock()

	if live {
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.conns = map[*websocket.Conn]struct{}{}
		s.mu.Unlock()
	}

	if gm.store == nil {
		if !live {
			return fmt.Errorf("%w: %s", storage.ErrGameNotFound, id)
		}
		return nil
	}
	if !live {
		if _, err := gm.store.LoadGame(id); err != nil {
			return err
		}
	}
	if err := gm.store.DeleteGame(id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	gm.log.Info().Str("game", id).Msg("game deleted")
	return nil
}
