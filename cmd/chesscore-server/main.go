package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/server"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	addr     = flag.String("addr", ":3000", "listen address")
	dataDir  = flag.String("data-dir", "", "database directory (default: per-user data dir)")
	memory   = flag.Bool("memory", false, "keep games in memory only")
	origins  = flag.String("origins", "", "comma-separated CORS origins")
	bookFile = flag.String("book", "", "opening book in Polyglot layout")
	logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
)

type options struct {
	addr     string
	dataDir  string
	memory   bool
	origins  string
	bookFile string
}

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		addr:     *addr,
		dataDir:  *dataDir,
		memory:   *memory,
		origins:  *origins,
		bookFile: *bookFile,
	}
	if err := run(ctx, opts, logger); err != nil {
		stop()
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// run serves until ctx is done. The store is closed before it returns.
func run(ctx context.Context, opts options, logger zerolog.Logger) error {
	var openings *book.Book
	if opts.bookFile != "" {
		var err error
		if openings, err = book.LoadPolyglot(opts.bookFile); err != nil {
			return fmt.Errorf("load opening book: %w", err)
		}
		logger.Info().Int("entries", openings.Size()).Msg("opening book loaded")
	}

	var store *storage.Storage
	if !opts.memory {
		var err error
		if opts.dataDir != "" {
			store, err = storage.Open(opts.dataDir)
		} else {
			store, err = storage.NewStorage()
		}
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()
	}

	app := server.New(server.Config{
		Store:        store,
		Book:         openings,
		Logger:       logger,
		AllowOrigins: opts.origins,
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Warn().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("addr", opts.addr).Bool("persistent", store != nil).Msg("listening")
	return app.Listen(opts.addr)
}
