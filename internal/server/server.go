// Package server exposes game sessions over HTTP and websockets.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/storage"
)

// Config configures the HTTP application.
type Config struct {
	Store        *storage.Storage // nil keeps games in memory only
	Book         *book.Book       // optional opening book for engine moves
	Logger       zerolog.Logger
	AllowOrigins string // CORS origins, "" disables CORS
}

// New builds the fiber application with all routes registered.
func New(cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "chesscore",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if cfg.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowHeaders: "Origin, Content-Type, Accept",
			AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		}))
	}
	app.Use(requestLogger(cfg.Logger))

	manager := NewGameManager(cfg.Store, cfg.Logger)
	manager.SetBook(cfg.Book)
	gameController := NewGameController(manager)
	wsController := NewWebSocketController(manager, cfg.Logger)

	ws := app.Group("/ws")
	ws.Get("/games/:id", wsController.Upgrade, websocket.New(wsController.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))

	api := app.Group("/api")
	api.Post("/evaluate", gameController.Evaluate)
	api.Get("/stats", gameController.Stats)
	api.Get("/preferences", gameController.GetPreferences)
	api.Put("/preferences", gameController.SavePreferences)

	games := api.Group("/games")
	games.Get("/", gameController.ListGames)
	games.Post("/", gameController.CreateGame)
	games.Get("/:id", gameController.GetGameState)
	games.Delete("/:id", gameController.DeleteGame)
	games.Get("/:id/moves/:square", gameController.SelectPiece)
	games.Post("/:id/moves", gameController.MakeMove)
	games.Post("/:id/engine", gameController.EngineMove)

	return app
}

func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
		return err
	}
}
