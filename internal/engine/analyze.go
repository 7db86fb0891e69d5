package engine

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// Analysis is the search result for one position.
type Analysis struct {
	FEN   string
	Move  board.Move
	Score int
	Nodes uint64
	Err   error
}

// Analyze searches each position under limits, at most GOMAXPROCS at a
// time. Every goroutine gets its own Engine, so no table is shared.
// Positions with nothing to move report ErrNoMoves in their result;
// cancellation aborts the batch.
func Analyze(ctx context.Context, positions []*board.Position, limits SearchLimits, logger zerolog.Logger) ([]Analysis, error) {
	results := make([]Analysis, len(positions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, pos := range positions {
		g.Go(func() error {
			eng := NewEngine(logger.With().Int("job", i).Logger())
			var nodes uint64
			eng.OnInfo = func(info SearchInfo) { nodes = info.Nodes }

			m, score, err := eng.SearchWithLimits(ctx, pos, limits)
			results[i] = Analysis{FEN: pos.FEN(), Move: m, Score: score, Nodes: nodes, Err: err}
			if err != nil && ctx.Err() != nil {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
