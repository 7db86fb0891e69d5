package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	depth      = flag.Int("depth", 0, "default search depth for a bare \"go\"")
	bookFile   = flag.String("book", "", "opening book in Polyglot layout")
	verbose    = flag.Bool("v", false, "log search progress to stderr")
)

func main() {
	flag.Parse()

	// stdout belongs to the protocol.
	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.NewEngine(logger)
	if *bookFile != "" {
		b, err := book.LoadPolyglot(*bookFile)
		if err != nil {
			logger.Warn().Err(err).Msg("opening book not loaded")
		} else {
			eng.SetBook(b)
		}
	}

	protocol := uci.New(eng, os.Stdin, os.Stdout, logger)
	protocol.SetDefaultDepth(*depth)
	if err := protocol.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("uci loop failed")
	}
}
