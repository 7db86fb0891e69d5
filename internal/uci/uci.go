// Package uci speaks the Universal Chess Interface protocol over a pair
// of streams.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/engine"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	ply      int // half-moves applied since the last "position" base

	depth int // default depth when "go" names no limit

	in    io.Reader
	out   io.Writer
	outMu sync.Mutex
	log   zerolog.Logger

	// Search state
	searching    bool
	searchDone   chan struct{}
	cancelSearch context.CancelFunc
}

// New creates a UCI protocol handler reading commands from in and writing
// replies to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer, logger zerolog.Logger) *UCI {
	return &UCI{
		engine:   eng,
		position: board.StartPosition(),
		depth:    engine.DifficultySettings[engine.Medium].Depth,
		in:       in,
		out:      out,
		log:      logger.With().Str("component", "uci").Logger(),
	}
}

// SetDefaultDepth sets the depth used by "go" without a depth or clock.
func (u *UCI) SetDefaultDepth(depth int) {
	if depth > 0 {
		u.depth = depth
	}
}

// Run processes commands until "quit", end of input or ctx is done.
func (u *UCI) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.send(u.position.String())
			u.send("Fen: " + u.position.FEN())
		case "eval":
			u.handleEval()
		case "perft":
			u.handlePerft(args)
		default:
			u.send("info string unknown command: " + cmd)
		}
	}

	u.handleStop()
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return ctx.Err()
}

// send writes one line of output.
func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	if len(args) == 0 {
		fmt.Fprintln(u.out, format)
		return
	}
	fmt.Fprintf(u.out, format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name ChessCore")
	u.send("id author ChessCore Team")
	u.send("")
	u.send("option name Depth type spin default %d min 1 max %d", u.depth, engine.MaxDepth)
	u.send("option name Difficulty type combo default medium var easy var medium var hard")
	u.send("option name BookFile type string default <empty>")
	u.send("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = board.StartPosition()
	u.ply = 0
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesIdx := slices.Index(args, "moves")
	if movesIdx < 0 {
		movesIdx = len(args)
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.StartPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesIdx], " "))
		if err != nil {
			u.send("info string invalid fen: %v", err)
			return
		}
	default:
		return
	}

	ply := 0
	for _, moveStr := range args[min(movesIdx+1, len(args)):] {
		m, err := board.ParseMove(moveStr, pos)
		if err != nil || m.Piece.Color != pos.SideToMove() || !board.IsMoveValid(m.Piece, m.To, pos) {
			u.send("info string invalid move: %s", moveStr)
			return
		}
		pos = pos.Apply(m)
		ply++
	}

	u.position = pos
	u.ply = ply
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	next := func(i *int) int {
		if *i+1 >= len(args) {
			return 0
		}
		*i++
		n, _ := strconv.Atoi(args[*i])
		return n
	}
	ms := func(i *int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = next(&i)
		case "movetime":
			opts.MoveTime = ms(&i)
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.WTime = ms(&i)
		case "btime":
			opts.BTime = ms(&i)
		case "winc":
			opts.WInc = ms(&i)
		case "binc":
			opts.BInc = ms(&i)
		case "movestogo":
			opts.MovesToGo = next(&i)
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits.
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	tm := engine.NewTimeManager()
	tm.Init(engine.ClockLimits{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
		MoveTime:  opts.MoveTime,
		Depth:     opts.Depth,
		Infinite:  opts.Infinite,
	}, u.position.SideToMove(), u.ply)

	depth := opts.Depth
	switch {
	case depth > 0:
	case opts.Infinite, tm.OptimumTime() > 0:
		depth = engine.MaxDepth
	default:
		depth = u.depth
	}
	limits := tm.Limits(depth)
	if opts.Infinite {
		limits.MoveTime = 0
	}
	return limits
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()

	limits := u.calculateLimits(parseGoOptions(args))
	u.engine.OnInfo = u.sendInfo

	searchCtx, cancel := context.WithCancel(ctx)
	u.searching = true
	u.searchDone = make(chan struct{})
	u.cancelSearch = cancel
	pos := u.position

	go func() {
		defer close(u.searchDone)
		defer cancel()

		m, score, err := u.engine.SearchWithLimits(searchCtx, pos, limits)
		if errors.Is(err, context.Canceled) {
			// Stopped before the first pass; a UCI search must still answer.
			m, score, err = u.engine.SearchBestMove(context.Background(), pos, 1)
		}
		if err != nil {
			u.log.Debug().Err(err).Msg("search ended without a move")
			u.send("bestmove 0000")
			return
		}
		u.log.Debug().Str("move", m.String()).Int("score", score).Msg("bestmove")
		u.send("bestmove %s", m)
	}()
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{fmt.Sprintf("depth %d", info.Depth)}

	switch {
	case info.Score >= engine.MateLower:
		parts = append(parts, "score mate 1")
	case info.Score <= -engine.MateLower:
		parts = append(parts, "score mate -1")
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.BestMove != board.NoMove {
		parts = append(parts, "pv "+info.BestMove.String())
	}

	u.send("info " + strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searching {
		u.engine.Stop()
		u.cancelSearch()
		<-u.searchDone
		u.searching = false
	}
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for _, a := range args {
		switch a {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, a)
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "depth":
		d, err := strconv.Atoi(strings.Join(value, ""))
		if err != nil || d < 1 {
			u.send("info string invalid depth: %s", strings.Join(value, " "))
			return
		}
		u.depth = min(d, engine.MaxDepth)
	case "difficulty":
		d, ok := engine.ParseDifficulty(strings.ToLower(strings.Join(value, "")))
		if !ok {
			u.send("info string invalid difficulty: %s", strings.Join(value, " "))
			return
		}
		u.engine.SetDifficulty(d)
		u.depth = engine.DifficultySettings[d].Depth
	case "bookfile":
		path := strings.Join(value, " ")
		if path == "" || path == "<empty>" {
			u.engine.SetBook(nil)
			return
		}
		b, err := book.LoadPolyglot(path)
		if err != nil {
			u.send("info string book not loaded: %v", err)
			return
		}
		u.engine.SetBook(b)
		u.send("info string book loaded: %d entries", b.Size())
	default:
		u.send("info string unknown option: %s", strings.Join(name, " "))
	}
}

// handleEval prints the static evaluation of the current position.
func (u *UCI) handleEval() {
	score := engine.Evaluate(u.position)
	u.send("info string eval %d (%s) side %s", score, engine.ScoreToString(score), u.position.SideToMove())
}

// handlePerft counts pseudo-legal move paths from the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}
	start := time.Now()
	nodes := board.Perft(u.position, depth)
	u.send("info string perft %d nodes %d time %d", depth, nodes, time.Since(start).Milliseconds())
}
